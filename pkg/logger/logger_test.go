package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	log := New("debug")
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return log, &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_WithContext_TypedKeys(t *testing.T) {
	log, buf := setupTestLogger(t)

	ctx := context.WithValue(context.Background(), RequestIDContextKey, "req-7")
	ctx = context.WithValue(ctx, UserIDContextKey, "user-7")

	log.WithContext(ctx).Info("hello")

	entry := lastLine(t, buf)
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "user-7", entry["user_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestLogger_WithContext_ForeignKeyTypesIgnored(t *testing.T) {
	log, buf := setupTestLogger(t)

	// Keys of any other type must not leak in, even with the same name.
	type legacyKey string
	ctx := context.WithValue(context.Background(), legacyKey("request_id"), "req-7")

	log.WithContext(ctx).Info("hello")

	entry := lastLine(t, buf)
	assert.NotContains(t, entry, "request_id")
}

func TestLogger_WithUserIDAndRequestID(t *testing.T) {
	log, buf := setupTestLogger(t)

	log.WithUserID("user-1").WithField("extra", 1).Info("first")
	first := lastLine(t, buf)
	assert.Equal(t, "user-1", first["user_id"])

	buf.Reset()
	log.WithRequestID("req-1").Info("second")
	second := lastLine(t, buf)
	assert.Equal(t, "req-1", second["request_id"])
}

func TestLogger_Audit(t *testing.T) {
	log, buf := setupTestLogger(t)

	log.Audit("user-1", "export_patients", "patients", true, map[string]interface{}{"rows": 3})

	entry := lastLine(t, buf)
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "export_patients", entry["action"])
	assert.Equal(t, "info", entry["level"])

	buf.Reset()
	log.Audit("user-1", "export_patients", "patients", false, nil)
	denied := lastLine(t, buf)
	assert.Equal(t, "warning", denied["level"])
}

func TestLogger_PatientAccess(t *testing.T) {
	log, buf := setupTestLogger(t)

	ctx := context.WithValue(context.Background(), RequestIDContextKey, "req-9")
	log.PatientAccess(ctx, "user-1", 101, "edit", "notes", false, nil)

	entry := lastLine(t, buf)
	assert.Equal(t, true, entry["patient_access"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, float64(101), entry["deal_id"])
	assert.Equal(t, false, entry["allowed"])
	assert.Equal(t, "warning", entry["level"])
}

func TestLogger_HTTPRequest(t *testing.T) {
	log, buf := setupTestLogger(t)

	log.HTTPRequest(context.Background(), "GET", "/api/v1/patients", "10.0.0.1", 200, 12)

	entry := lastLine(t, buf)
	assert.Equal(t, true, entry["http_request"])
	assert.Equal(t, "/api/v1/patients", entry["path"])
	assert.Equal(t, float64(200), entry["status_code"])
	assert.Equal(t, "info", entry["level"])
}
