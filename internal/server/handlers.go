package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"pixgate/internal/captcha"
	"pixgate/internal/constants"
	"pixgate/internal/delivery"
	"pixgate/internal/security"
	"pixgate/internal/session"
	"pixgate/internal/types"
)

func (s *Server) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != constants.EndpointRoot {
		s.Templates.Render(w, http.StatusNotFound, "error.html", map[string]interface{}{
			"Title":   "Not Found",
			"Message": "There is nothing here.",
		})
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	sess := s.Sessions.Load(w, r)
	c, err := s.Captcha.Ensure(r.Context(), sess)
	if err != nil {
		s.Log.Error("Failed to prepare challenge", zap.String("session", sess.ID()), zap.Error(err))
		s.Templates.Render(w, http.StatusInternalServerError, "error.html", map[string]interface{}{
			"Title":   "Something went wrong",
			"Message": "The challenge could not be prepared. Please reload the page.",
		})
		return
	}

	indexes := make([]int, c.Len())
	for i := range indexes {
		indexes[i] = i
	}

	w.Header().Set("Cache-Control", "no-store")
	s.Templates.Render(w, http.StatusOK, "home.html", map[string]interface{}{
		"Title":      "Send a message",
		"Target":     s.TargetName,
		"CaptchaKey": s.Now().UnixMilli(),
		"Indexes":    indexes,
	})
}

func (s *Server) HandleCaptchaImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	sess := s.Sessions.Load(w, r)
	raw := r.URL.Query().Get("index")

	data, err := s.Captcha.FetchImage(r.Context(), sess, raw)
	if err != nil {
		s.writeCaptchaError(w, r, sess, raw, err)
		return
	}

	w.Header().Set("Content-Type", constants.ImageContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeCaptchaError(w http.ResponseWriter, r *http.Request, sess *session.Handle, raw string, err error) {
	ip := security.GetClientIP(r)
	switch {
	case errors.Is(err, captcha.ErrInvalidIndex):
		s.AuditLogger.LogInvalidIndex(ip, sess.ID(), raw)
		http.Error(w, constants.MsgInvalidIndex, http.StatusBadRequest)
	case errors.Is(err, captcha.ErrResourceUnavailable):
		s.AuditLogger.LogImageUnavailable(ip, sess.ID(), err)
		http.Error(w, constants.MsgImageUnavailable, http.StatusInternalServerError)
	default:
		s.Log.Error("Session failure", zap.String("session", sess.ID()), zap.Error(err))
		http.Error(w, constants.MsgSessionFailure, http.StatusInternalServerError)
	}
}

func (s *Server) HandleCaptchaRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	sess := s.Sessions.Load(w, r)
	if _, err := s.Captcha.Regenerate(r.Context(), sess); err != nil {
		s.Log.Error("Failed to regenerate challenge", zap.String("session", sess.ID()), zap.Error(err))
		http.Error(w, constants.MsgSessionFailure, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	var req types.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.SendResponse{Error: constants.MsgInvalidJSON})
		return
	}

	message := strings.TrimSpace(security.SanitizeInput(req.Message))
	if message == "" {
		writeJSON(w, http.StatusBadRequest, types.SendResponse{Error: constants.MsgMessageRequired})
		return
	}
	if utf8.RuneCountInString(message) > constants.MaxMessageLength {
		writeJSON(w, http.StatusBadRequest, types.SendResponse{Error: constants.MsgMessageTooLong})
		return
	}

	clientIP := security.GetClientIP(r)
	if !s.BruteProtector.Check(clientIP) {
		s.AuditLogger.LogCaptchaBlocked(clientIP)
		writeJSON(w, http.StatusTooManyRequests, types.SendResponse{Error: constants.MsgTooManyFailures})
		return
	}

	sess := s.Sessions.Load(w, r)
	result, err := s.Captcha.Verify(r.Context(), sess, req.SelectedIndexes)
	if err != nil {
		s.Log.Error("Failed to verify challenge", zap.String("session", sess.ID()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, types.SendResponse{Error: constants.MsgSessionFailure})
		return
	}

	// Every answer, right or wrong, burns the challenge.
	if _, err := s.Captcha.Regenerate(r.Context(), sess); err != nil {
		s.Log.Error("Failed to regenerate challenge", zap.String("session", sess.ID()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, types.SendResponse{Error: constants.MsgSessionFailure})
		return
	}

	if !result.Accepted {
		s.BruteProtector.RecordFailure(clientIP)
		if result.Reason == captcha.ReasonReplayed {
			s.AuditLogger.LogCaptchaReplay(clientIP, sess.ID())
		} else {
			s.AuditLogger.LogCaptchaFailure(clientIP, sess.ID())
		}
		s.Log.Info("❌ Wrong CAPTCHA", zap.String("session", sess.ID()), zap.String("ip", clientIP))
		writeJSON(w, http.StatusOK, types.SendResponse{Sent: false, CaptchaIsOk: false})
		return
	}

	s.BruteProtector.RecordSuccess(clientIP)
	s.AuditLogger.LogCaptchaSuccess(clientIP, sess.ID())

	msg := delivery.NewMessage(message, clientIP, s.Now())
	if err := s.Sender.Send(r.Context(), msg); err != nil {
		s.Log.Error("Failed to deliver message", zap.String("message", msg.ID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, types.SendResponse{Sent: false, CaptchaIsOk: true, Error: constants.MsgDeliveryFailed})
		return
	}

	s.AuditLogger.LogMessageSent(clientIP, sess.ID(), msg.ID)
	s.Log.Info("✅ Message sent", zap.String("message", msg.ID), zap.String("session", sess.ID()))
	writeJSON(w, http.StatusOK, types.SendResponse{Sent: true, CaptchaIsOk: true})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
