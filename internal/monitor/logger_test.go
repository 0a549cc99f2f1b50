package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestNewLogger_FileOutput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "hitbtc.log")

	logger := NewLogger("info", "file", file)
	logger.WithComponent("sync").Info("balances stored")
	logger.Debug("hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"balances stored"`)
	assert.Contains(t, lines[0], `"prefix":"sync"`)
}

func TestNewLogger_Console(t *testing.T) {
	logger := NewLogger("debug", "console", "")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.Equal(t, os.Stdout, logger.Out)
}
