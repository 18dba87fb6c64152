package common

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Error(t, InitLoggers("verbose"))
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	old := logOutput
	logOutput = &buf
	defer func() { logOutput = old }()

	l := CreateLogger("perfdb")
	l.SetLevel(logger.WARNING)
	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)
	l.Errorf("shown %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN  | perfdb     | shown 2")
	assert.Contains(t, out, "ERROR | perfdb     | shown 3")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestInitLoggersTwice(t *testing.T) {
	require.NoError(t, InitLoggers("error"))
	require.NoError(t, InitLoggers("info"))
}

func TestConfigString(t *testing.T) {
	c := Config{DBPath: "/tmp/perf.db", Lock: true, LockTimeoutSecond: 30, WaitTimeoutSecond: 10, LogLevel: "info"}
	s := c.String()
	assert.Contains(t, s, "DATABASE")
	assert.Contains(t, s, "/tmp/perf.db")
	assert.Contains(t, s, "30 sec")

	c.Lock = false
	assert.NotContains(t, c.String(), "Stale After")
}
