package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"DEBUG", LevelDebug, false},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_BeforeInit(t *testing.T) {
	// Loggers obtained before Init are usable and silent.
	log := Get("preinit")
	require.NotNil(t, log)
	log.Info("goes nowhere")
}

func TestGet_SameComponentSameLogger(t *testing.T) {
	assert.Same(t, Get("engine"), Get("engine"))
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "leakwatch.log")

	require.NoError(t, Init(Config{Level: "debug", Path: path}))
	defer func() { _ = Close() }()

	Get("filetest").Info("written to file", "key", "value")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "filetest")
}

func TestInit_ComponentLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakwatch.log")

	require.NoError(t, Init(Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	}))
	defer func() { _ = Close() }()

	Get("chatty").Debug("component override")
	Get("muted").Debug("default level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "component override")
	assert.NotContains(t, string(data), "default level")
}

func TestInit_InvalidLevel(t *testing.T) {
	assert.Error(t, Init(Config{Level: "nope"}))
}

func TestLogger_With(t *testing.T) {
	log := Get("with")
	child := log.With("request", "abc")
	require.NotNil(t, child)
	assert.NotSame(t, log, child)
}

func TestClose_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakwatch.log")
	require.NoError(t, Init(Config{Level: "info", Path: path}))

	require.NoError(t, Close())
	assert.NoError(t, Close())
}
