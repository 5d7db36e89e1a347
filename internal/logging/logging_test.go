package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("emlak", "json", &buf)

	logger.InfoContext(WithRequestID(context.Background(), "req-1"), "test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Failed to parse JSON: %s", buf.String())
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "emlak", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	Setup("emlak", "text", &buf).Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "emlak")
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		hidden string
	}{
		{"bearer header", "Authorization: Bearer abc.def.ghi failed", "abc.def.ghi"},
		{"raw jwt", "token eyJhbGciOiJIUzI1NiJ9.eyJ1c2VyX2lkIjoxfQ.sig123 expired", "eyJhbGciOiJIUzI1NiJ9"},
		{"query token", "GET /api/properties?token=s3cr3t&x=1", "s3cr3t"},
		{"json password", `{"email":"a@b.c","password":"hunter2"}`, "hunter2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Redact(tt.in)
			assert.NotContains(t, out, tt.hidden)
			assert.Contains(t, out, mask)
		})
	}

	assert.Equal(t, "nothing to hide", Redact("nothing to hide"))
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("emlak", "json", &buf)

	err := oops.Code("PERSISTENCE_FAILURE").With("operation", "create").Errorf("insert failed for Bearer xyz")
	LogError(context.Background(), logger, "create failed", err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "PERSISTENCE_FAILURE", entry["code"])
	assert.NotContains(t, entry["error"], "xyz")

	buf.Reset()
	LogError(context.Background(), logger, "plain", errors.New("standard error"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["error"], "standard error")
}
