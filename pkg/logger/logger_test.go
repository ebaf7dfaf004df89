package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	SetOutput(os.Stdout)
	Init("info")
	os.Exit(code)
}

func TestInit_Levels(t *testing.T) {
	for in, want := range map[string]string{
		"debug":   "debug",
		"DEBUG":   "debug",
		"warn":    "warn",
		"warning": "warn",
		"error":   "error",
		"fatal":   "fatal",
		"":        "info",
		"bogus":   "info",
	} {
		Init(in)
		require.Equal(t, want, LevelString(), "Init(%q)", in)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("warn")

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	require.NotContains(t, out, "debug 1")
	require.NotContains(t, out, "info 2")
	require.Contains(t, out, "[WARN] warn 3")
	require.Contains(t, out, "[ERROR] error 4")
}

func TestInfoIncludesTimestampHeader(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Init("info")

	Info("service started")
	line := strings.TrimSpace(buf.String())
	require.Contains(t, line, "[INFO] service started")
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, line)
}
