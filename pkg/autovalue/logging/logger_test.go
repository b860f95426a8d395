package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warn "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("valuation computed")
	require.NoError(t, l.Sync())

	blob, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"msg":"valuation computed"`)
	assert.Contains(t, string(blob), `"ts":`)
	assert.NotContains(t, string(blob), "hidden")
}

func TestNewRejectsBadOutput(t *testing.T) {
	_, err := New(Config{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "dir", "app.log")}})
	assert.Error(t, err)
}
