package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Time            time.Time     `json:"time"`
	Memory          jsonMemory    `json:"memory"`
	Counts          jsonCounts    `json:"counts"`
	Suspects        []jsonSuspect `json:"suspects"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// jsonMemory represents memory counters in JSON output.
type jsonMemory struct {
	HeapUsed  uint64 `json:"heap_used"`
	HeapTotal uint64 `json:"heap_total"`
	External  uint64 `json:"external"`
	Buffers   uint64 `json:"buffers"`
}

// jsonCounts represents live resource counts in JSON output.
type jsonCounts struct {
	Listeners          int `json:"listeners"`
	Timers             int `json:"timers"`
	Nodes              int `json:"nodes"`
	DetachedNodes      int `json:"detached_nodes"`
	StoreSubscriptions int `json:"store_subscriptions"`
}

// jsonSuspect represents one leak suspect in JSON output.
type jsonSuspect struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Magnitude   int64  `json:"magnitude"`
	Trace       string `json:"trace,omitempty"`
}

// JSONFormatter formats a report as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.buildOutput(r))
}

// buildOutput converts a report into the JSON output structure.
func (f *JSONFormatter) buildOutput(r *types.Report) jsonOutput {
	suspects := make([]jsonSuspect, 0, len(r.Suspects))
	for _, s := range r.Suspects {
		suspects = append(suspects, jsonSuspect{
			Category:    string(s.Category),
			Severity:    s.Severity.String(),
			Description: s.Description,
			Magnitude:   s.Magnitude,
			Trace:       s.Trace,
		})
	}

	return jsonOutput{
		Time: r.Time,
		Memory: jsonMemory{
			HeapUsed:  r.Memory.HeapUsed,
			HeapTotal: r.Memory.HeapTotal,
			External:  r.Memory.External,
			Buffers:   r.Memory.Buffers,
		},
		Counts: jsonCounts{
			Listeners:          r.Counts.Listeners,
			Timers:             r.Counts.Timers,
			Nodes:              r.Counts.Nodes,
			DetachedNodes:      r.Counts.DetachedNodes,
			StoreSubscriptions: r.Counts.StoreSubscriptions,
		},
		Suspects:        suspects,
		Recommendations: r.Recommendations,
	}
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
