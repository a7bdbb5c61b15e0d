package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DEBUG, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, INFO, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestComponentLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	require.NoError(t, Init(Options{Dir: dir, ConsoleLevel: WARN, FileLevel: DEBUG, Console: &buf}))
	t.Cleanup(func() {
		_ = Init(Options{ConsoleLevel: INFO, FileLevel: DEBUG})
	})

	logger := GetComponentLogger("visitor")
	assert.Equal(t, "visitor", logger.Component())
	assert.Same(t, logger, GetComponentLogger("visitor"), "логгер компонента кэшируется")

	logger.Debug("только в файл")
	logger.Warn("в консоль и файл")

	out := buf.String()
	assert.Contains(t, out, "[visitor] ")
	assert.Contains(t, out, "[WARN] в консоль и файл")
	assert.NotContains(t, out, "только в файл")

	require.NoError(t, GetLoggerManager().CloseAll())
	files, err := filepath.Glob(filepath.Join(dir, "visitor_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] только в файл")
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{ConsoleLevel: WARN, FileLevel: WARN, Console: &buf}))
	t.Cleanup(func() {
		_ = Init(Options{ConsoleLevel: INFO, FileLevel: DEBUG})
	})
	manager := GetLoggerManager()

	// уровень до создания логгера применяется при GetLogger
	manager.SetLogLevel("visitor", DEBUG, DEBUG)
	visitor := GetComponentLogger("visitor")
	console, file := visitor.Levels()
	assert.Equal(t, DEBUG, console)
	assert.Equal(t, DEBUG, file)
	visitor.Debug("шаг обхода")

	// уже созданный логгер меняется сразу
	world := GetComponentLogger("world")
	world.Info("до смены уровня")
	manager.SetLogLevel("world", INFO, WARN)
	world.Info("после смены уровня")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] шаг обхода")
	assert.NotContains(t, out, "до смены уровня")
	assert.Contains(t, out, "[INFO] после смены уровня")

	require.NoError(t, Init(Options{ConsoleLevel: WARN, FileLevel: WARN, Console: &buf}))
	console, _ = GetComponentLogger("visitor").Levels()
	assert.Equal(t, WARN, console, "Init сбрасывает уровни компонентов")
}

func TestSetLogLevelConcurrent(t *testing.T) {
	require.NoError(t, Init(Options{ConsoleLevel: ERROR, FileLevel: ERROR, Console: io.Discard}))
	t.Cleanup(func() {
		_ = Init(Options{ConsoleLevel: INFO, FileLevel: DEBUG})
	})
	logger := GetComponentLogger("session")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			logger.Debug("сообщение %d", i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			GetLoggerManager().SetLogLevel("session", LogLevel(i%5), ERROR)
		}
	}()
	wg.Wait()
}
