package strain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		percent float64
		want    Status
	}{
		{0, Normal},
		{49.99, Normal},
		{50, Notice},
		{69.9, Notice},
		{70, Warning},
		{89.9, Warning},
		{90, Danger},
		{100, Danger},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.percent), "percent %v", tt.percent)
	}
}

func TestAlertTracker_Hysteresis(t *testing.T) {
	var a AlertTracker
	var fired []int
	var sentAfter []bool

	for i, pct := range []float64{40, 55, 55, 40} {
		a.Observe(Classify(pct))
		if a.ShouldNotify() {
			fired = append(fired, i)
			a.MarkSent()
		}
		sentAfter = append(sentAfter, a.Sent())
	}

	assert.Equal(t, []int{1}, fired)
	assert.Equal(t, []bool{false, true, true, false}, sentAfter)
}

func TestAlertTracker_EscalationRenotifies(t *testing.T) {
	var a AlertTracker
	count := 0
	for _, pct := range []float64{55, 55, 75, 75, 95, 95, 75} {
		a.Observe(Classify(pct))
		if a.ShouldNotify() {
			count++
			a.MarkSent()
		}
	}
	assert.Equal(t, 4, count)
}

func TestAlertTracker_UnsentPersists(t *testing.T) {
	var a AlertTracker
	assert.True(t, a.Observe(Warning))
	assert.False(t, a.Observe(Warning))
	assert.True(t, a.ShouldNotify(), "still due until marked")
	a.MarkSent()
	assert.False(t, a.ShouldNotify())
}

func TestActuation(t *testing.T) {
	assert.Equal(t, Outputs{}, Actuation(Normal))
	assert.Equal(t, Outputs{Indicator: true}, Actuation(Notice))
	assert.Equal(t, Outputs{Indicator: true, Audible: true}, Actuation(Warning))
	assert.Equal(t, Outputs{Indicator: true, Audible: true}, Actuation(Danger))
}

func TestStatus_Text(t *testing.T) {
	tests := []struct {
		s             Status
		name, msg, tg string
	}{
		{Normal, "NORMAL", "", ""},
		{Notice, "NOTICE", "Strain level elevated", "info"},
		{Warning, "WARNING", "High strain detected", "warning"},
		{Danger, "DANGER", "Load capacity exceeded (≥90%)", "danger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.s.String())
		assert.Equal(t, tt.msg, tt.s.Message())
		assert.Equal(t, tt.tg, tt.s.Tag())
	}
}
