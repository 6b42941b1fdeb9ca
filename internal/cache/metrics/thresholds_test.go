package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLatency(t *testing.T) {
	tests := []struct {
		ms   float64
		want Level
	}{
		{10, LevelExcellent},
		{50, LevelExcellent},
		{51, LevelGood},
		{100, LevelGood},
		{150, LevelAcceptable},
		{200, LevelAcceptable},
		{256, LevelPoor},
		{500, LevelPoor},
		{501, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyLatency(tt.ms), "latency %v", tt.ms)
	}
}

func TestClassifyHitRate(t *testing.T) {
	tests := []struct {
		pct  float64
		want Level
	}{
		{100, LevelExcellent},
		{95, LevelExcellent},
		{94.9, LevelGood},
		{85, LevelGood},
		{70, LevelAcceptable},
		{69.9, LevelPoor},
		{30, LevelPoor},
		{29.9, LevelCritical},
		{0, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHitRate(tt.pct), "hit rate %v", tt.pct)
	}
}

func TestClassifyErrorRate(t *testing.T) {
	tests := []struct {
		pct  float64
		want Level
	}{
		{0, LevelExcellent},
		{0.5, LevelGood},
		{1, LevelGood},
		{5, LevelAcceptable},
		{10, LevelPoor},
		{20, LevelPoor},
		{20.1, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyErrorRate(tt.pct), "error rate %v", tt.pct)
	}
}

func TestDegraded(t *testing.T) {
	assert.False(t, LevelExcellent.Degraded())
	assert.False(t, LevelAcceptable.Degraded())
	assert.True(t, LevelPoor.Degraded())
	assert.True(t, LevelCritical.Degraded())
}
