package security

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"pixgate/internal/constants"
	"pixgate/internal/logger"
)

type AuditEvent struct {
	EventType string
	IP        string
	SessionID string
	Details   string
	Severity  string
}

// AuditLogger writes security events as JSON lines, at most
// MaxAuditLogsPerMinute per minute. A nil *AuditLogger drops events.
type AuditLogger struct {
	mu          sync.Mutex
	log         *zap.Logger
	closeFn     func() error
	logDir      string
	logCount    map[string]int
	windowStart time.Time
	limit       int
	now         func() time.Time
}

// NewAuditLogger opens today's audit file under dir.
func NewAuditLogger(dir string) (*AuditLogger, error) {
	filename := filepath.Join(dir, fmt.Sprintf("audit-%s.log", time.Now().Format("2006-01-02")))
	l, closeFn, err := logger.NewFileLogger(filename)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		log:         l,
		closeFn:     closeFn,
		logDir:      dir,
		logCount:    make(map[string]int),
		windowStart: time.Now(),
		limit:       constants.MaxAuditLogsPerMinute,
		now:         time.Now,
	}, nil
}

// DefaultAuditDir returns <data dir>/audit.
func DefaultAuditDir() (string, error) {
	dir, err := logger.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit"), nil
}

func (al *AuditLogger) Log(event AuditEvent) {
	if al == nil {
		return
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	now := al.now()

	if now.Sub(al.windowStart) > time.Minute {
		al.windowStart = now
		al.logCount = make(map[string]int)
	}

	totalLogs := 0
	for _, count := range al.logCount {
		totalLogs += count
	}

	if totalLogs >= al.limit {
		return
	}

	if !al.hasEnoughDiskSpace() {
		return
	}

	al.logCount[event.EventType]++
	al.log.Info(event.EventType,
		zap.String("event_type", event.EventType),
		zap.String("ip", event.IP),
		zap.String("session_id", event.SessionID),
		zap.String("details", event.Details),
		zap.String("severity", event.Severity))
}

func (al *AuditLogger) LogCaptchaFailure(ip, sessionID string) {
	al.Log(AuditEvent{
		EventType: "captcha_failure",
		IP:        ip,
		SessionID: sessionID,
		Details:   "Wrong CAPTCHA selection",
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogCaptchaSuccess(ip, sessionID string) {
	al.Log(AuditEvent{
		EventType: "captcha_success",
		IP:        ip,
		SessionID: sessionID,
		Details:   "CAPTCHA solved",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogCaptchaReplay(ip, sessionID string) {
	al.Log(AuditEvent{
		EventType: "captcha_replay",
		IP:        ip,
		SessionID: sessionID,
		Details:   "Answer to an already used challenge",
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogSessionExpired(sessionID string) {
	al.Log(AuditEvent{
		EventType: "session_expired",
		SessionID: sessionID,
		Details:   "Session expired",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogCaptchaBlocked(ip string) {
	al.Log(AuditEvent{
		EventType: "captcha_blocked",
		IP:        ip,
		Details:   fmt.Sprintf("Blocked after %d wrong answers", constants.MaxCaptchaFailures),
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogInvalidIndex(ip, sessionID, raw string) {
	al.Log(AuditEvent{
		EventType: "invalid_index",
		IP:        ip,
		SessionID: sessionID,
		Details:   fmt.Sprintf("Invalid image index %q", raw),
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogImageUnavailable(ip, sessionID string, err error) {
	al.Log(AuditEvent{
		EventType: "image_unavailable",
		IP:        ip,
		SessionID: sessionID,
		Details:   err.Error(),
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogMessageSent(ip, sessionID, messageID string) {
	al.Log(AuditEvent{
		EventType: "message_sent",
		IP:        ip,
		SessionID: sessionID,
		Details:   fmt.Sprintf("Message %s delivered", messageID),
		Severity:  "info",
	})
}

func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.closeFn != nil {
		return al.closeFn()
	}
	return nil
}
