package analysis

import (
	"fmt"
)

// Metric is the enumerated set of live-feedback metrics. Several goal ids
// alias to one metric; each metric is computed once per tick and broadcast
// to every aliasing goal.
type Metric string

const (
	MetricEyeContact        Metric = "eyeContact"
	MetricSmileScore        Metric = "smileScore"
	MetricExpressionRange   Metric = "expressionRange"
	MetricPoseStability     Metric = "poseStability"
	MetricHeadShake         Metric = "headShake"
	MetricHeadTilt          Metric = "headTilt"
	MetricMouthOpenness     Metric = "mouthOpenness"
	MetricLipPress          Metric = "lipPress"
	MetricChinAngle         Metric = "chinAngle"
	MetricStageHeadMovement Metric = "stageHeadMovement"
)

// goalMetric maps every known goal id to its underlying metric. Unmapped
// goal ids are a construction-time error, not a silent no-op.
var goalMetric = map[string]Metric{
	"eyeContact":        MetricEyeContact,
	"smileScore":        MetricSmileScore,
	"expressionRange":   MetricExpressionRange,
	"poseStability":     MetricPoseStability,
	"headShake":         MetricHeadShake,
	"headTilt":          MetricHeadTilt,
	"mouthOpenness":     MetricMouthOpenness,
	"lipPress":          MetricLipPress,
	"chinAngle":         MetricChinAngle,
	"stageHeadMovement": MetricStageHeadMovement,

	"Professional Smile":   MetricSmileScore,
	"Eye Contact":          MetricEyeContact,
	"Respectful Gaze":      MetricEyeContact,
	"Blank Face Avoidance": MetricExpressionRange,
}

// MetricForGoal resolves a goal id to its metric.
func MetricForGoal(goal string) (Metric, bool) {
	m, ok := goalMetric[goal]
	return m, ok
}

// ValidateGoals rejects any goal id outside the enumerated set.
func ValidateGoals(goals []string) error {
	for _, g := range goals {
		if _, ok := goalMetric[g]; !ok {
			return fmt.Errorf("unknown goal %q", g)
		}
	}
	return nil
}

// Each metric has one scalar threshold; its meaning depends on the metric
// (target fraction, max rate, target angle...). Scenarios override a subset
// and fall back to the defaults for the rest.
var defaultThresholds = map[Metric]float64{
	MetricEyeContact:        0.6,  // target eye-contact fraction
	MetricSmileScore:        0.1,  // minimum smile fraction
	MetricExpressionRange:   0.1,  // minimum smile stddev
	MetricPoseStability:     1.8,  // jitter RMS degrees
	MetricHeadShake:         8,    // max shakes per minute
	MetricHeadTilt:          4,    // target tilts per minute
	MetricMouthOpenness:     0.35, // target mouth aspect ratio
	MetricLipPress:          0.3,  // max average press score
	MetricChinAngle:         0,    // target pitch radians
	MetricStageHeadMovement: 2.5,  // target jitter RMS degrees
}

var scenarioThresholds = map[string]map[Metric]float64{
	"interview": {
		MetricPoseStability: 1.2,
		MetricEyeContact:    0.70,
		MetricSmileScore:    0.05,
		MetricLipPress:      0.2,
	},
	"presentation": {
		MetricStageHeadMovement: 2.0,
		MetricExpressionRange:   0.15,
		MetricEyeContact:        0.65,
		MetricMouthOpenness:     0.4,
		MetricSmileScore:        0.10,
	},
	"comedy": {
		MetricExpressionRange:   0.22,
		MetricSmileScore:        0.18,
		MetricStageHeadMovement: 2.2,
		MetricMouthOpenness:     0.45,
		MetricEyeContact:        0.60,
	},
	"custom":  {},
	"default": defaultThresholds,
}

// KnownScenario reports whether id selects a threshold profile; unknown ids
// fall back to the defaults.
func KnownScenario(id string) bool {
	_, ok := scenarioThresholds[id]
	return ok
}

func thresholdFor(scenarioID string, m Metric) float64 {
	if sc, ok := scenarioThresholds[scenarioID]; ok {
		if v, ok := sc[m]; ok {
			return v
		}
	}
	return defaultThresholds[m]
}
