package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pixgate/internal/config"
	"pixgate/internal/constants"
	"pixgate/internal/delivery"
	"pixgate/internal/types"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []delivery.Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg delivery.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func writeImages(t *testing.T, dir string) {
	t.Helper()
	for i := 1; i <= constants.PrimaryPoolSize; i++ {
		name := filepath.Join(dir, fmt.Sprintf("car%d.png", i))
		require.NoError(t, os.WriteFile(name, []byte(fmt.Sprintf("car-%d", i)), 0644))
	}
	for i := 1; i <= constants.SecondaryPoolSize; i++ {
		name := filepath.Join(dir, fmt.Sprintf("bicycle%d.png", i))
		require.NoError(t, os.WriteFile(name, []byte(fmt.Sprintf("bicycle-%d", i)), 0644))
	}
}

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	http   *http.Client
	sender *recordingSender
}

// newTestEnv starts a server whose challenges contain only cars when
// probability is 1, so the right answer is every index.
func newTestEnv(t *testing.T, probability string, withImages bool) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", home)

	imgDir := t.TempDir()
	if withImages {
		writeImages(t, imgDir)
	}

	env := map[string]string{
		"SESSION_SECRET":      "0123456789abcdef0123456789abcdef",
		"CAPTCHA_IMAGE_DIR":   imgDir,
		"CAPTCHA_PROBABILITY": probability,
		"CAPTCHA_SEED":        "42",
	}
	cfg, err := config.Load(func(k string) string { return env[k] })
	require.NoError(t, err)

	s, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	sender := &recordingSender{}
	s.Sender = sender

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Cleanup()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: s, ts: ts, http: &http.Client{Jar: jar}, sender: sender}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.http.Get(e.ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) send(t *testing.T, message string, selected []int) (int, types.SendResponse) {
	t.Helper()
	payload, err := json.Marshal(types.SendRequest{Message: message, SelectedIndexes: selected})
	require.NoError(t, err)
	resp, err := e.http.Post(e.ts.URL+constants.EndpointSend, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out types.SendResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

var allIndexes = []int{0, 1, 2, 3, 4, 5, 6, 7, 8}

func TestHomeRendersGrid(t *testing.T) {
	e := newTestEnv(t, "1", true)

	resp, body := e.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "car")
	assert.Equal(t, 9, strings.Count(string(body), "data-index="))

	// Rejected sends keep the visitor's selection instead of reloading tiles.
	assert.Contains(t, string(body), "res.status === 400")

	resp, _ = e.get(t, "/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCaptchaImage(t *testing.T) {
	e := newTestEnv(t, "1", true)

	resp, body := e.get(t, "/api/captcha-image?index=0")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "car-"))

	// The same session keeps serving the same tile.
	_, again := e.get(t, "/api/captcha-image?index=0")
	assert.Equal(t, body, again)

	for _, raw := range []string{"9", "-1", "abc", "", "%2B3", "%203", "3%20"} {
		resp, body = e.get(t, "/api/captcha-image?index="+raw)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, raw)
		assert.Equal(t, constants.MsgInvalidIndex, strings.TrimSpace(string(body)))
	}
}

func TestCaptchaImageUnavailable(t *testing.T) {
	e := newTestEnv(t, "1", false)

	resp, body := e.get(t, "/api/captcha-image?index=3")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, constants.MsgImageUnavailable, strings.TrimSpace(string(body)))
}

func TestSendCorrectAnswer(t *testing.T) {
	e := newTestEnv(t, "1", true)
	e.get(t, "/")

	status, out := e.send(t, "  hello  ", []int{8, 0, 1, 2, 3, 4, 5, 6, 7, 0})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, out.Sent)
	assert.True(t, out.CaptchaIsOk)
	require.Len(t, e.sender.msgs, 1)
	assert.Equal(t, "hello", e.sender.msgs[0].Body)
}

func TestSendWrongAnswer(t *testing.T) {
	e := newTestEnv(t, "1", true)
	e.get(t, "/")

	status, out := e.send(t, "hello", []int{0, 1})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, out.Sent)
	assert.False(t, out.CaptchaIsOk)
	assert.Empty(t, e.sender.msgs)
}

// sendWithCookie posts without the jar, presenting a cookie captured earlier.
func (e *testEnv) sendWithCookie(t *testing.T, cookie *http.Cookie, selected []int) types.SendResponse {
	t.Helper()
	payload, err := json.Marshal(types.SendRequest{Message: "hello", SelectedIndexes: selected})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+constants.EndpointSend, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out types.SendResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func captureSessionCookie(t *testing.T, e *testEnv) *http.Cookie {
	t.Helper()
	resp, err := http.Get(e.ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSendRejectsReplayedCookie(t *testing.T) {
	e := newTestEnv(t, "1", true)
	cookie := captureSessionCookie(t, e)

	out := e.sendWithCookie(t, cookie, allIndexes)
	assert.True(t, out.Sent)

	for i := 0; i < 3; i++ {
		out = e.sendWithCookie(t, cookie, allIndexes)
		assert.False(t, out.Sent, "replay %d", i)
		assert.False(t, out.CaptchaIsOk, "replay %d", i)
	}
	assert.Len(t, e.sender.msgs, 1)
}

func TestReplayedWrongAnswersCountAsFailures(t *testing.T) {
	e := newTestEnv(t, "1", true)
	cookie := captureSessionCookie(t, e)

	e.sendWithCookie(t, cookie, nil)
	for i := 1; i < constants.MaxCaptchaFailures; i++ {
		out := e.sendWithCookie(t, cookie, allIndexes)
		assert.False(t, out.CaptchaIsOk)
	}
	status, _ := e.send(t, "hello", allIndexes)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Empty(t, e.sender.msgs)
}

func TestSendWithoutTargetsAcceptsEmptySelection(t *testing.T) {
	e := newTestEnv(t, "0", true)

	_, out := e.send(t, "hello", []int{0})
	assert.False(t, out.CaptchaIsOk)

	_, out = e.send(t, "hello", nil)
	assert.True(t, out.CaptchaIsOk)
	assert.True(t, out.Sent)
}

func TestSendEmptyMessage(t *testing.T) {
	e := newTestEnv(t, "1", true)
	_, before := e.get(t, "/api/captcha-image?index=0")

	status, out := e.send(t, "   ", allIndexes)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, constants.MsgMessageRequired, out.Error)
	assert.Empty(t, e.sender.msgs)

	// The challenge survives a rejected empty message.
	_, after := e.get(t, "/api/captcha-image?index=0")
	assert.Equal(t, before, after)
}

func TestSendInvalidJSON(t *testing.T) {
	e := newTestEnv(t, "1", true)

	resp, err := e.http.Post(e.ts.URL+constants.EndpointSend, "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSendDeliveryFailure(t *testing.T) {
	e := newTestEnv(t, "1", true)
	e.sender.err = errors.New("sink down")

	status, out := e.send(t, "hello", allIndexes)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.False(t, out.Sent)
	assert.True(t, out.CaptchaIsOk)
}

func TestSendBlocksAfterRepeatedFailures(t *testing.T) {
	e := newTestEnv(t, "1", true)

	for i := 0; i < constants.MaxCaptchaFailures; i++ {
		status, _ := e.send(t, "hello", nil)
		assert.Equal(t, http.StatusOK, status)
	}
	status, out := e.send(t, "hello", allIndexes)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, constants.MsgTooManyFailures, out.Error)
	assert.Empty(t, e.sender.msgs)
}

func TestRefreshAndMethods(t *testing.T) {
	e := newTestEnv(t, "1", true)

	resp, err := e.http.Post(e.ts.URL+constants.EndpointCaptchaRefresh, "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = e.get(t, constants.EndpointSend)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	resp, _ = e.get(t, constants.EndpointCaptchaRefresh)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, body := e.get(t, constants.EndpointHealth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestSecurityHeadersApplied(t *testing.T) {
	e := newTestEnv(t, "1", true)
	resp, _ := e.get(t, "/")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
