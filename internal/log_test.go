package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(" WARN "))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("Debug"))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLoggerLevelsAndPrefix(t *testing.T) {
	buf := captureLog(t)
	logger := NewLogger(LogLevelWarn)
	store := logger.With("Store")

	store.Info("hidden")
	store.Warn("slow query %dms", 120)
	assert.Equal(t, "[WARN] [Store] slow query 120ms\n", buf.String())

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	store.Debug("derived loggers follow the parent level")
	store.Trace("hidden")
	assert.Equal(t, "[DEBUG] [Store] derived loggers follow the parent level\n", buf.String())
	assert.Equal(t, LogLevelDebug, store.GetLevel())
}
