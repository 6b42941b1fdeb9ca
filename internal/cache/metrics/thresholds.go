package metrics

// Level classifies a metric against its threshold table.
type Level string

const (
	LevelExcellent  Level = "excellent"
	LevelGood       Level = "good"
	LevelAcceptable Level = "acceptable"
	LevelPoor       Level = "poor"
	LevelCritical   Level = "critical"
)

// Degraded reports whether the level warrants an alert.
func (l Level) Degraded() bool {
	return l == LevelPoor || l == LevelCritical
}

// threshold is one row of an ordered threshold table. Classification is a
// first-matching-threshold scan, not interpolation.
type threshold struct {
	limit float64
	level Level
}

// latencyThresholds classify average latency in milliseconds (value <= limit).
var latencyThresholds = []threshold{
	{50, LevelExcellent},
	{100, LevelGood},
	{200, LevelAcceptable},
	{500, LevelPoor},
}

// hitRateThresholds classify hit rate percentage (value >= limit).
var hitRateThresholds = []threshold{
	{95, LevelExcellent},
	{85, LevelGood},
	{70, LevelAcceptable},
	{30, LevelPoor},
}

// errorRateThresholds classify error rate percentage (value <= limit).
var errorRateThresholds = []threshold{
	{0, LevelExcellent},
	{1, LevelGood},
	{5, LevelAcceptable},
	{20, LevelPoor},
}

// ClassifyLatency classifies an average latency in milliseconds.
func ClassifyLatency(avgMs float64) Level {
	for _, t := range latencyThresholds {
		if avgMs <= t.limit {
			return t.level
		}
	}
	return LevelCritical
}

// ClassifyHitRate classifies a hit rate percentage.
func ClassifyHitRate(pct float64) Level {
	for _, t := range hitRateThresholds {
		if pct >= t.limit {
			return t.level
		}
	}
	return LevelCritical
}

// ClassifyErrorRate classifies an error rate percentage.
func ClassifyErrorRate(pct float64) Level {
	for _, t := range errorRateThresholds {
		if pct <= t.limit {
			return t.level
		}
	}
	return LevelCritical
}

// Health is the classified view of a summary.
type Health struct {
	HitRate   Level `json:"hit_rate"`
	Latency   Level `json:"latency"`
	ErrorRate Level `json:"error_rate"`
}

// Classify maps a summary onto the threshold tables.
func Classify(s Summary) Health {
	return Health{
		HitRate:   ClassifyHitRate(s.HitRatePct),
		Latency:   ClassifyLatency(s.AvgLatencyMs),
		ErrorRate: ClassifyErrorRate(s.ErrorRatePct),
	}
}
