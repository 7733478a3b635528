package analysis

// LandmarkFrame is one frame of facial measurement from the client-side
// landmark model: blendshape name -> score in [0,1], plus a row-major 4x4
// head transformation matrix. A frame missing either part is invalid and is
// skipped by the engine.
type LandmarkFrame struct {
	Blendshapes map[string]float64 `json:"blendshapes"`
	Transform   []float64          `json:"transform"`
	ThumbB64    string             `json:"thumb_b64,omitempty"`
}

// Valid reports whether the frame carries enough data to be accumulated.
func (f *LandmarkFrame) Valid() bool {
	return f != nil && len(f.Blendshapes) > 0 && len(f.Transform) >= 16
}

func (f *LandmarkFrame) shape(name string) float64 {
	return f.Blendshapes[name]
}

func (f *LandmarkFrame) shapeAvg(left, right string) float64 {
	return (f.Blendshapes[left] + f.Blendshapes[right]) / 2
}

// TimelineEvent is one classified frame: session-relative timestamp, the
// argmax label, and the full probability vector.
type TimelineEvent struct {
	T     float64   `json:"t" bson:"t"`
	Label string    `json:"label" bson:"label"`
	Probs []float64 `json:"probs" bson:"probs"`
}

// KeyMoment is a short high-confidence non-neutral event surfaced for
// post-session review.
type KeyMoment struct {
	TStart   float64 `json:"tStart" bson:"t_start"`
	TEnd     float64 `json:"tEnd" bson:"t_end"`
	Label    string  `json:"label" bson:"label"`
	Note     string  `json:"note" bson:"note"`
	ThumbB64 string  `json:"thumb_b64,omitempty" bson:"thumb_b64,omitempty"`
	ThumbURL string  `json:"thumb_url,omitempty" bson:"thumb_url,omitempty"`
	ClipURL  string  `json:"clip_url,omitempty" bson:"clip_url,omitempty"`
}

// TipPriority orders competing coaching tips; lower rank wins upstream.
type TipPriority string

const (
	PriorityCritical     TipPriority = "critical"
	PriorityUrgent       TipPriority = "urgent"
	PriorityTrendingDown TipPriority = "trending_down"
	PriorityModerate     TipPriority = "moderate"
	PriorityPositive     TipPriority = "positive"
	PriorityNeutral      TipPriority = "neutral"
)

// Tip is a single coaching message. Tips are regenerated every feedback tick;
// display smoothing is the UI's concern.
type Tip struct {
	Message  string      `json:"message"`
	Priority TipPriority `json:"priority"`
}

type FeedbackStatus string

const (
	StatusGood             FeedbackStatus = "good"
	StatusAverage          FeedbackStatus = "average"
	StatusNeedsImprovement FeedbackStatus = "needs_improvement"
)

// GoalFeedback is the live feedback bundle for one active goal, fully
// recomputed each tick from accumulator snapshots.
type GoalFeedback struct {
	Percentage int            `json:"percentage"`
	Status     FeedbackStatus `json:"status"`
	Tips       []Tip          `json:"tips"`
}

// LiveFeedback maps goal id -> feedback for that goal.
type LiveFeedback map[string]GoalFeedback

// DetailedReport summarises session-long raw signal averages and counters.
type DetailedReport struct {
	SessionDuration       float64 `json:"sessionDuration" bson:"session_duration"`
	BlinksPerMinute       int     `json:"blinksPerMinute" bson:"blinks_per_minute"`
	AverageSmileIntensity float64 `json:"averageSmileIntensity" bson:"average_smile_intensity"`
	AverageBrowFurrow     float64 `json:"averageBrowFurrow" bson:"average_brow_furrow"`
	AverageJawOpen        float64 `json:"averageJawOpen" bson:"average_jaw_open"`
	NodCount              int     `json:"nodCount" bson:"nod_count"`
	GazePercent           float64 `json:"gazePercent" bson:"gaze_percent"`
	OpeningSmileIntensity float64 `json:"openingSmileIntensity" bson:"opening_smile_intensity"`
	YawnCount             int     `json:"yawnCount" bson:"yawn_count"`
}

// BackendReport is the structured end-of-session report built from the
// emotion timeline.
type BackendReport struct {
	Classes    []string         `json:"classes" bson:"classes"`
	Timeline   []TimelineEvent  `json:"timeline" bson:"timeline"`
	Aggregates ReportAggregates `json:"aggregates" bson:"aggregates"`
	Scores     ReportScores     `json:"scores" bson:"scores"`
	Insights   ReportInsights   `json:"insights" bson:"insights"`
	Version    string           `json:"version" bson:"version"`
	FPS        float64          `json:"fps" bson:"fps"`
	DurationSec float64         `json:"durationSec" bson:"duration_sec"`
}

type ReportAggregates struct {
	Counts         map[string]int     `json:"counts" bson:"counts"`
	DurationsSec   map[string]float64 `json:"durationsSec" bson:"durations_sec"`
	MeanConfidence float64            `json:"meanConfidence" bson:"mean_confidence"`
}

type ReportScores struct {
	Expressiveness int `json:"expressiveness" bson:"expressiveness"`
	Steadiness     int `json:"steadiness" bson:"steadiness"`
	Positivity     int `json:"positivity" bson:"positivity"`
}

type ReportInsights struct {
	DominantEmotion string      `json:"dominantEmotion" bson:"dominant_emotion"`
	KeyMoments      []KeyMoment `json:"keyMoments" bson:"key_moments"`
	Gaps            []string    `json:"gaps" bson:"gaps"`
}

// ActionItem is one prioritized follow-up task in the unified report.
type ActionItem struct {
	Priority string `json:"priority" bson:"priority"` // high|medium|low
	Task     string `json:"task" bson:"task"`
}

// UnifiedFeedbackData is the consumer-facing artifact combining the backend
// and detailed reports under a scenario weighting.
type UnifiedFeedbackData struct {
	OverallScore        int          `json:"overallScore" bson:"overall_score"`
	PositivityScore     int          `json:"positivityScore" bson:"positivity_score"`
	SteadinessScore     int          `json:"steadinessScore" bson:"steadiness_score"`
	ExpressivenessScore int          `json:"expressivenessScore" bson:"expressiveness_score"`
	Date                string       `json:"date" bson:"date"`
	Session             string       `json:"session" bson:"session"`
	Duration            string       `json:"duration" bson:"duration"`
	KeyInsights         []string     `json:"keyInsights" bson:"key_insights"`
	ActionItems         []ActionItem `json:"actionItems" bson:"action_items"`
}
