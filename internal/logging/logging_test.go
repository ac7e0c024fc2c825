package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn", "json")

	log.Info().Msg("dropped")
	log.Warn().Str("doctor_id", "7").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "7", line["doctor_id"])
	assert.Equal(t, "warn", line["level"])
}

func TestNewWriterBadLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "loud", "json")
	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	log.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}
