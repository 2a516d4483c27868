package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("volume left behind", "volume", "/v/redis/abc123")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "volume left behind")
	assert.Contains(t, out, "/v/redis/abc123")
	assert.Contains(t, out, "lighthouse")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(nil, "loud")
	require.Error(t, err)
}
