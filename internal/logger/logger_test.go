package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level Level) (*FileLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := NewFileLogger(&Config{
		LogFilePath: path,
		MaxFileSize: 1024 * 1024,
		MaxBackups:  2,
		Level:       level,
	})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFileLogger_WritesEntries(t *testing.T) {
	l, path := newTestLogger(t, LevelDebug)

	l.Info("translation started", String("language", "de"), Int("segments", 12))
	l.Error("batch failed", errors.New("boom"), Int("attempt", 2))

	content := readLog(t, path)
	assert.Contains(t, content, "[INFO] translation started language=de segments=12")
	assert.Contains(t, content, `[ERROR] batch failed error="boom" attempt=2`)
}

func TestFileLogger_LevelFiltering(t *testing.T) {
	l, path := newTestLogger(t, LevelWarn)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warning")

	content := readLog(t, path)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "visible warning")

	l.SetLevel(LevelDebug)
	l.Debug("now visible")
	assert.Contains(t, readLog(t, path), "now visible")
}

func TestFileLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotate.log")
	l, err := NewFileLogger(&Config{
		LogFilePath: path,
		MaxFileSize: 200,
		MaxBackups:  2,
		Level:       LevelDebug,
	})
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 20; i++ {
		l.Info("filler entry to push the file over the rotation threshold")
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "rotation should have produced a backup file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{input: "debug", want: LevelDebug},
		{input: "Info", want: LevelInfo},
		{input: "WARN", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "bogus", want: LevelInfo},
		{input: "", want: LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestFields(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "f", Value: 1.5}, Float64("f", 1.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "error", Value: "x"}, Err(errors.New("x")))
	assert.Equal(t, Field{Key: "error", Value: nil}, Err(nil))
}

func TestGlobalLogger_NoopWhenUninitialized(t *testing.T) {
	SetGlobalLogger(nil)
	// Must not panic without Init.
	Debug("a")
	Info("b")
	Warn("c")
	Error("d", errors.New("e"))
	assert.NoError(t, Close())
}

func TestGlobalLogger_InitAndLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Init(&Config{LogFilePath: path, MaxFileSize: 1 << 20, Level: LevelInfo}))
	defer Close()

	Info("global entry", String("key", "value"))

	content := readLog(t, path)
	assert.True(t, strings.Contains(content, "global entry"))
}
