package log

import (
	"bytes"
	"testing"

	"github.com/kataras/golog"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelWarn)

	logger.Debug("hidden %d", 1)
	logger.Info("hidden %d", 2)
	logger.Warn("shown %d", 3)
	logger.Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
}

func TestDefaultLoggerNoneSilencesEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCustomLogger(&buf, LogLevelNone)

	logger.Error("nope")

	assert.Empty(t, buf.String())
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Equal(t, "UNKNOWN(42)", LogLevel(42).String())
}

func TestGologLoggerLevelTracking(t *testing.T) {
	logger := NewGologLogger(golog.New())

	assert.Equal(t, LogLevelInfo, logger.GetLevel())
	logger.SetLevel(LogLevelError)
	assert.Equal(t, LogLevelError, logger.GetLevel())
}

func TestSetAndGetDefaultLogger(t *testing.T) {
	old := GetDefaultLogger()
	defer SetDefaultLogger(old)

	quiet := NoOpLogger{}
	SetDefaultLogger(quiet)
	assert.Equal(t, quiet, GetDefaultLogger())
}
