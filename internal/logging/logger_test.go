package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_RespectsConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("test", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("предупреждение %d", 1)
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [test] предупреждение 1")
	assert.Contains(t, out, "[ERROR] [test] ошибка")
}

func TestDefaultLogger_SilentUntilInitialized(t *testing.T) {
	SetDefaultLogger(nil)
	assert.NotPanics(t, func() {
		Info("никуда")
		LogCommand("extrude 0 0 0 +")
	})

	var buf bytes.Buffer
	SetDefaultLogger(NewWriterLogger("default", &buf, TRACE))
	defer SetDefaultLogger(nil)

	LogCommand("extrude 1 2 3 +")
	assert.Contains(t, buf.String(), "kernel <- extrude 1 2 3 +")
}

func TestNewLogger_WritesFile(t *testing.T) {
	old := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = old }()

	l, err := NewLogger("filetest")
	require.NoError(t, err)
	l.SetLevels(ERROR+1, DEBUG)
	l.Trace("скрыто")
	l.Debug("видно в файле")
	require.NoError(t, l.Close())

	entries, err := os.ReadDir(LogDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "filetest_"))

	data, err := os.ReadFile(filepath.Join(LogDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "видно в файле")
	assert.NotContains(t, string(data), "скрыто")
}

func TestComponents_LevelsReachOpenAndFutureLoggers(t *testing.T) {
	var buf bytes.Buffer
	opened := 0
	c := NewComponents(func(name string) (*Logger, error) {
		opened++
		return NewWriterLogger(name, &buf, TRACE), nil
	})

	gen := c.Get("generator")
	assert.Same(t, gen, c.Get("generator"), "Логгер компонента создается один раз")
	gen.Debug("скрыто")

	c.SetLevels(DEBUG, TRACE)
	gen.Debug("видно generator")
	c.Get("kernel").Trace("скрыто kernel")
	c.Get("kernel").Debug("видно kernel")

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "[DEBUG] [generator] видно generator")
	assert.Contains(t, out, "[DEBUG] [kernel] видно kernel")
	assert.Equal(t, 2, opened)

	require.NoError(t, c.SetComponentLevels("kernel", ERROR, ERROR))
	assert.Error(t, c.SetComponentLevels("missing", ERROR, ERROR))
}

func TestComponents_CloseAll(t *testing.T) {
	old := LogDir
	LogDir = t.TempDir()
	defer func() { LogDir = old }()

	c := NewComponents(NewLogger)
	l := c.Get("generator")
	require.NotNil(t, l.file)

	require.NoError(t, c.CloseAll())
	assert.Nil(t, l.file, "Файл компонента закрыт")
	assert.NotSame(t, l, c.Get("generator"), "После CloseAll компонент открывается заново")
	require.NoError(t, c.CloseAll())
}

func TestComponents_FallsBackToStdout(t *testing.T) {
	c := NewComponents(func(string) (*Logger, error) { return nil, os.ErrPermission })
	l := c.Get("generator")
	require.NotNil(t, l)
	assert.Nil(t, l.file)
	assert.NotPanics(t, func() { l.Info("в stdout") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, INFO, ParseLevel("nonsense"))
}

func TestSetDefaultLevels(t *testing.T) {
	SetDefaultLogger(nil)
	assert.NotPanics(t, func() { SetDefaultLevels(DEBUG, DEBUG) })

	var buf bytes.Buffer
	SetDefaultLogger(NewWriterLogger("default", &buf, INFO))
	defer SetDefaultLogger(nil)

	Debug("скрыто")
	SetDefaultLevels(DEBUG, TRACE)
	Debug("видно")

	assert.NotContains(t, buf.String(), "скрыто")
	assert.Contains(t, buf.String(), "видно")
}
