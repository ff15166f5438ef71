package logging

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesLeveledEntries(t *testing.T) {
	logger, err := NewLogger("test")
	require.NoError(t, err)
	defer logger.Close()

	logger.Debugf("debug %d", 1)
	logger.Infof("info %s", "message")
	logger.Warnf("warn")
	logger.Errorf("error")

	require.NotEmpty(t, logger.LogPath())
	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "[DEBUG] debug 1")
	assert.Contains(t, content, "[INFO] info message")
	assert.Contains(t, content, "[WARN] warn")
	assert.Contains(t, content, "[ERROR] error")
	assert.Contains(t, content, "[test]")
}

func TestLogger_SharedRunID(t *testing.T) {
	a, err := NewLogger("component-a")
	require.NoError(t, err)
	defer a.Close()

	b, err := NewLogger("component-b")
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.RunID(), b.RunID())
	assert.Equal(t, a.LogPath(), b.LogPath())
	assert.True(t, strings.HasSuffix(a.LogPath(), "-afip.log"))
}

func TestLogger_CloseIsIdempotent(t *testing.T) {
	logger, err := NewLogger("test")
	require.NoError(t, err)

	require.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}
