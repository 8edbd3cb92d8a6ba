package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// sampleReport builds a report with one suspect of every interesting field.
func sampleReport() *types.Report {
	return &types.Report{
		Time: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Memory: types.MemoryCounters{
			HeapUsed:  48 * 1024 * 1024,
			HeapTotal: 96 * 1024 * 1024,
			External:  8 * 1024 * 1024,
			Buffers:   2 * 1024 * 1024,
		},
		Counts: types.ResourceCounts{
			Listeners:          61,
			Timers:             3,
			Nodes:              42,
			DetachedNodes:      0,
			StoreSubscriptions: 5,
		},
		Suspects: []types.LeakSuspect{
			{
				Category:    types.CategoryListener,
				Severity:    types.SeverityHigh,
				Description: `target "session" has 61 live "update" listeners`,
				Magnitude:   61,
				Trace:       "app.attach (main.go:42)",
			},
		},
		Recommendations: []string{
			"remove event listeners when their owner is torn down",
		},
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register("test", func() Formatter { return &JSONFormatter{} })

	f, err := r.Get("test")
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestRegistry_Get_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	assert.Error(t, err)
}

func TestDefaultRegistry_Available(t *testing.T) {
	available := Available()
	assert.Contains(t, available, "pretty")
	assert.Contains(t, available, "json")
	assert.Contains(t, available, "yaml")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	suspects, ok := decoded["suspects"].([]any)
	require.True(t, ok)
	require.Len(t, suspects, 1)

	suspect := suspects[0].(map[string]any)
	assert.Equal(t, "listener", suspect["category"])
	assert.Equal(t, "high", suspect["severity"])
	assert.Equal(t, float64(61), suspect["magnitude"])
	assert.Equal(t, "app.attach (main.go:42)", suspect["trace"])

	memory := decoded["memory"].(map[string]any)
	assert.Equal(t, float64(48*1024*1024), memory["heap_used"])
}

func TestJSONFormatter_Format_NoSuspects(t *testing.T) {
	r := sampleReport()
	r.Suspects = nil
	r.Recommendations = nil

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, r))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	// Suspects serializes as an empty list, recommendations is omitted.
	assert.Empty(t, decoded["suspects"])
	assert.NotContains(t, decoded, "recommendations")
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleReport()))

	var decoded struct {
		Counts struct {
			Listeners int `yaml:"listeners"`
		} `yaml:"counts"`
		Suspects []struct {
			Category string `yaml:"category"`
			Severity string `yaml:"severity"`
		} `yaml:"suspects"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, 61, decoded.Counts.Listeners)
	require.Len(t, decoded.Suspects, 1)
	assert.Equal(t, "listener", decoded.Suspects[0].Category)
	assert.Equal(t, "high", decoded.Suspects[0].Severity)
}

func TestPrettyFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "listener")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "61")
	assert.Contains(t, out, "remove event listeners")
}

func TestPrettyFormatter_Format_Clean(t *testing.T) {
	r := sampleReport()
	r.Suspects = nil
	r.Recommendations = nil

	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))
	assert.Contains(t, buf.String(), "No leak suspects")
}
