package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		" info ":  INFO,
		"warning": WARN,
		"error":   ERROR,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "уровень %q", in)
	}
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger("history", &buf, WARN)

	log.Info("скрыто")
	log.Warn("replay %d", 7)
	out := buf.String()
	assert.NotContains(t, out, "скрыто", "INFO ниже порога")
	assert.Contains(t, out, "replay 7")
	assert.Contains(t, out, "component=history")

	buf.Reset()
	log.SetLevels(TRACE, DEBUG)
	log.Trace("шаг")
	assert.Contains(t, buf.String(), "level=trace")
	assert.NoError(t, log.Close(), "Close без файла не ошибается")
}

func TestDefaultLoggerSwap(t *testing.T) {
	var buf bytes.Buffer
	prev := current()
	SetDefaultLogger(NewWriterLogger("default", &buf, DEBUG))
	defer SetDefaultLogger(prev)

	Debug("событие %s", "ok")
	assert.Contains(t, buf.String(), "событие ok")
}

func TestManagerComponents(t *testing.T) {
	lm := GetLoggerManager()
	log := lm.MustGetLogger("logging-test")
	require.NotNil(t, log)
	assert.Same(t, log, GetComponentLogger("logging-test"), "Логгер компонента кэшируется")
	assert.Contains(t, lm.ListComponents(), "logging-test")

	assert.NoError(t, lm.SetLogLevel("logging-test", ERROR, ERROR))
	assert.Error(t, lm.SetLogLevel("missing-component", INFO, INFO))
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))
	dump := HexDump([]byte("BRPL"))
	assert.Contains(t, dump, "42 52 50 4c")

	long := HexDump(bytes.Repeat([]byte{0xAB}, 1000))
	assert.Equal(t, 16, strings.Count(long, "\n"), "Дамп ограничен 256 байтами")
}
