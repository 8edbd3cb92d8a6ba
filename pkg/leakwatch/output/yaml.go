package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/types"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Time            time.Time     `yaml:"time"`
	Memory          yamlMemory    `yaml:"memory"`
	Counts          yamlCounts    `yaml:"counts"`
	Suspects        []yamlSuspect `yaml:"suspects"`
	Recommendations []string      `yaml:"recommendations,omitempty"`
}

// yamlMemory represents memory counters in YAML output.
type yamlMemory struct {
	HeapUsed  uint64 `yaml:"heap_used"`
	HeapTotal uint64 `yaml:"heap_total"`
	External  uint64 `yaml:"external"`
	Buffers   uint64 `yaml:"buffers"`
}

// yamlCounts represents live resource counts in YAML output.
type yamlCounts struct {
	Listeners          int `yaml:"listeners"`
	Timers             int `yaml:"timers"`
	Nodes              int `yaml:"nodes"`
	DetachedNodes      int `yaml:"detached_nodes"`
	StoreSubscriptions int `yaml:"store_subscriptions"`
}

// yamlSuspect represents one leak suspect in YAML output.
type yamlSuspect struct {
	Category    string `yaml:"category"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description"`
	Magnitude   int64  `yaml:"magnitude"`
	Trace       string `yaml:"trace,omitempty"`
}

// YAMLFormatter formats a report as a YAML document.
type YAMLFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *types.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(f.buildOutput(r)); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts a report into the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *types.Report) yamlOutput {
	suspects := make([]yamlSuspect, 0, len(r.Suspects))
	for _, s := range r.Suspects {
		suspects = append(suspects, yamlSuspect{
			Category:    string(s.Category),
			Severity:    s.Severity.String(),
			Description: s.Description,
			Magnitude:   s.Magnitude,
			Trace:       s.Trace,
		})
	}

	return yamlOutput{
		Time: r.Time,
		Memory: yamlMemory{
			HeapUsed:  r.Memory.HeapUsed,
			HeapTotal: r.Memory.HeapTotal,
			External:  r.Memory.External,
			Buffers:   r.Memory.Buffers,
		},
		Counts: yamlCounts{
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
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
