package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"":        Info,
		"warning": Warn,
		"Error":   Error,
	}

	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := Parse(input)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := Parse("verbose")
	assert.Error(t, err)
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("catalog", Warn, &buf)

	l.Info("skipped %d", 1)
	l.Warn("kept %s", "line")

	out := buf.String()
	assert.NotContains(t, out, "skipped")
	assert.Contains(t, out, "WARN  [catalog] kept line")
}

func TestLogger_NamedAndJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("vfs", Debug, &buf)
	l.JSON = true

	l.Named("overlay").Debug("applied %d directives", 3)

	var entry logEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "vfs/overlay", entry.Service)
	assert.Equal(t, "applied 3 directives", entry.Message)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("nothing should happen")

	var nilLogger *Logger
	nilLogger.Warn("nil receivers are ignored")
	assert.Nil(t, nilLogger.Named("child"))
}
