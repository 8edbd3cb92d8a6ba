package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityLow, "low"},
		{SeverityMedium, "medium"},
		{SeverityHigh, "high"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.String())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"low", SeverityLow, false},
		{"medium", SeverityMedium, false},
		{"high", SeverityHigh, false},
		{"critical", SeverityCritical, false},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidSeverity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_Ordering(t *testing.T) {
	// Severities must compare in escalation order.
	assert.True(t, SeverityLow < SeverityMedium)
	assert.True(t, SeverityMedium < SeverityHigh)
	assert.True(t, SeverityHigh < SeverityCritical)
}

func TestMemoryCounters_HeapUsedMB(t *testing.T) {
	m := MemoryCounters{HeapUsed: 12 * 1024 * 1024}
	assert.InDelta(t, 12.0, m.HeapUsedMB(), 0.001)

	assert.Zero(t, MemoryCounters{}.HeapUsedMB())
}

func TestMemoryCounters_HumanHeapUsed(t *testing.T) {
	m := MemoryCounters{HeapUsed: 2 * 1024 * 1024}
	assert.Equal(t, "2.0 MiB", m.HumanHeapUsed())
}

func TestReport_HasCritical(t *testing.T) {
	r := &Report{
		Time: time.Now(),
		Suspects: []LeakSuspect{
			{Category: CategoryListener, Severity: SeverityHigh},
			{Category: CategoryTimer, Severity: SeverityMedium},
		},
	}
	assert.False(t, r.HasCritical())

	r.Suspects = append(r.Suspects, LeakSuspect{
		Category: CategoryHeapGrowth,
		Severity: SeverityCritical,
	})
	assert.True(t, r.HasCritical())
}

func TestReport_HasCritical_Empty(t *testing.T) {
	r := &Report{Time: time.Now()}
	assert.False(t, r.HasCritical())
}
