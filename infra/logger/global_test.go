package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetGlobalLogger_Fallback(t *testing.T) {
	SetGlobalLogger(nil)
	t.Cleanup(func() { SetGlobalLogger(nil) })

	l := GetGlobalLogger()
	require.NotNil(t, l)
	assert.Same(t, l, GetGlobalLogger())
	assert.Equal(t, serviceName, l.service)
}

func TestGlobalLoggerConvenienceFunctions(t *testing.T) {
	buf := &bytes.Buffer{}
	SetGlobalLogger(NewSystemLogger(nil, SystemLoggerConfig{
		EnableConsole: true,
		MinLevel:      LevelDebug,
		Output:        buf,
	}))
	t.Cleanup(func() { SetGlobalLogger(nil) })

	Debug("debug message")
	Info("info message")
	Warn("warn message", LogContext{Provider: "sipay"})
	Error("error message", errors.New("boom"))
	WithProvider("kuveytturk").Info("provider message")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "boom", "provider=kuveytturk"} {
		assert.Contains(t, out, want)
	}
}
