package security

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAudit(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "audit-*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestAuditLoggerWritesEvents(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLogger(dir)
	require.NoError(t, err)

	al.LogCaptchaFailure("1.1.1.1", "sess-1")
	al.LogImageUnavailable("1.1.1.1", "sess-1", errors.New("car3 missing"))
	require.NoError(t, al.Close())

	lines := readAudit(t, dir)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event_type":"captcha_failure"`)
	assert.Contains(t, lines[0], `"session_id":"sess-1"`)
	assert.Contains(t, lines[1], "car3 missing")
}

func TestAuditLoggerReplayAndExpiry(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLogger(dir)
	require.NoError(t, err)

	al.LogCaptchaReplay("1.1.1.1", "sess-2")
	al.LogSessionExpired("sess-3")
	require.NoError(t, al.Close())

	lines := readAudit(t, dir)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event_type":"captcha_replay"`)
	assert.Contains(t, lines[0], `"severity":"critical"`)
	assert.Contains(t, lines[1], `"event_type":"session_expired"`)
	assert.Contains(t, lines[1], `"session_id":"sess-3"`)
}

func TestAuditLoggerCapsPerMinute(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLogger(dir)
	require.NoError(t, err)
	al.limit = 3

	for i := 0; i < 10; i++ {
		al.LogInvalidIndex("1.1.1.1", "s", "99")
	}
	require.NoError(t, al.Close())
	assert.Len(t, readAudit(t, dir), 3)
}

func TestNilAuditLoggerIsSilent(t *testing.T) {
	var al *AuditLogger
	al.LogCaptchaSuccess("1.1.1.1", "s")
	assert.NoError(t, al.Close())
}
