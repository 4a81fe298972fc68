package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "ja***@parliament.uk", RedactEmail("jane.doe@parliament.uk"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
}

func TestRedactPostcode(t *testing.T) {
	tests := map[string]string{
		"SW1A 1AA": "SW1A ***",
		"sw1a1aa":  "SW1A ***",
		"M1 1AE":   "M1 ***",
		"  ":       "",
		"AB":       "***",
	}
	for in, want := range tests {
		assert.Equal(t, want, RedactPostcode(in), "input %q", in)
	}
}

func TestLogRedactsFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	SetLevel(DEBUG)
	defer SetLevel(INFO)

	Info("lookup", "postcode", "SW1A 1AA", "mp_email", "jane.doe@parliament.uk",
		"narrative", "My street is loud", "note", "contact bob.smith@example.com")

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "lookup", entry["msg"])
	assert.Equal(t, "SW1A ***", entry["postcode"])
	assert.Equal(t, "ja***@parliament.uk", entry["mp_email"])
	assert.Equal(t, "[17 chars]", entry["narrative"])
	assert.Equal(t, "contact bo***@example.com", entry["note"])
}

func TestLogBelowLevelIsDropped(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	SetLevel(WARN)
	defer SetLevel(INFO)
	Info("quiet")
	assert.Zero(t, buf.Len())
	Warn("loud")
	assert.Contains(t, buf.String(), `"loud"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("Warning"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("whatever"))
}
