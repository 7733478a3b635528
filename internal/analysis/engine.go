package analysis

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrEmptyTimeline is returned when a report is requested before any
	// valid frame was processed.
	ErrEmptyTimeline = errors.New("no data in timeline")

	// ErrProbLength is returned when an external probability vector does not
	// match the fixed class count. This indicates an upstream model/contract
	// mismatch and is never recovered in place.
	ErrProbLength = errors.New("probability vector length does not match emotion classes")
)

const (
	framesPerSecond = 30
	openingSeconds  = 10

	yawnDurationFrames = 60

	yawStrictThreshold   = 0.22
	pitchStrictThreshold = 0.18

	shakeYawThreshold = 0.04
	tiltRollThreshold = 0.04
	nodPitchThreshold = 0.04
	headGestureDebounce = time.Second

	pitchWindowCap  = 150
	jitterWindowCap = 100

	keyMomentCooldown = 3 * time.Second

	tipTriggerFrames = framesPerSecond * 2
)

type headPose struct {
	yaw, pitch, roll float64
	at               time.Time
}

type snapshot struct {
	t   float64
	b64 string
}

// Engine accumulates per-frame facial measurements for one practice session
// and answers live feedback and end-of-session report queries. It is not
// safe for concurrent mutation; callers with concurrent frame sources must
// serialise writes.
type Engine struct {
	scorer Scorer
	now    func() time.Time

	totalFrames int
	validFrames int

	eyeContactFrames int
	blinkTimestamps  []time.Time

	// Unbounded session-long histories, used for global averages in the
	// end-of-session report.
	smileScores        []float64
	browFurrowScores   []float64
	mouthOpenScores    []float64
	jawOpenScores      []float64
	lipPressScores     []float64
	openingSmileScores []float64

	headShakeCount int
	headTiltCount  int
	nodCount       int

	lastPose    *headPose
	poseJitter  *window
	pitchWindow *window

	awayGazeFrames  int
	longestAwayGaze int
	currentAwayGaze int

	tipFiredAt map[string]time.Time

	timeline         []TimelineEvent
	snapshots        []snapshot
	captureCooldowns map[string]time.Time

	yawnCount              int
	sustainedJawOpenFrames int
	isYawning              bool

	// Coarse qualitative bands, consumed only by tip triggering.
	controlledSmileFrames   int
	highSmileFrames         int
	furrowedBrowFrames      int
	lookingAwayFrames       int
	naturalExpressionFrames int
	neutralFaceFrames       int

	lastShakeAt time.Time
	lastTiltAt  time.Time
	lastNodAt   time.Time

	scenarioID   string
	sessionStart time.Time
	started      bool
}

// NewEngine constructs an engine with the heuristic blendshape scorer.
func NewEngine() *Engine {
	e := &Engine{scorer: BlendshapeScorer{}, now: time.Now}
	e.Reset()
	return e
}

// NewEngineWithScorer constructs an engine with a custom scoring strategy.
func NewEngineWithScorer(s Scorer) *Engine {
	e := &Engine{scorer: s, now: time.Now}
	e.Reset()
	return e
}

// Reset reinitialises every accumulator by name. Nothing from a previous
// session survives it.
func (e *Engine) Reset() {
	e.totalFrames = 0
	e.validFrames = 0

	e.eyeContactFrames = 0
	e.blinkTimestamps = nil

	e.smileScores = nil
	e.browFurrowScores = nil
	e.mouthOpenScores = nil
	e.jawOpenScores = nil
	e.lipPressScores = nil
	e.openingSmileScores = nil

	e.headShakeCount = 0
	e.headTiltCount = 0
	e.nodCount = 0

	e.lastPose = nil
	e.poseJitter = newWindow(jitterWindowCap)
	e.pitchWindow = newWindow(pitchWindowCap)

	e.awayGazeFrames = 0
	e.longestAwayGaze = 0
	e.currentAwayGaze = 0

	e.tipFiredAt = map[string]time.Time{}

	e.timeline = nil
	e.snapshots = nil
	e.captureCooldowns = map[string]time.Time{}

	e.yawnCount = 0
	e.sustainedJawOpenFrames = 0
	e.isYawning = false

	e.controlledSmileFrames = 0
	e.highSmileFrames = 0
	e.furrowedBrowFrames = 0
	e.lookingAwayFrames = 0
	e.naturalExpressionFrames = 0
	e.neutralFaceFrames = 0

	e.lastShakeAt = time.Time{}
	e.lastTiltAt = time.Time{}
	e.lastNodAt = time.Time{}

	e.scenarioID = "default"
	e.sessionStart = time.Time{}
	e.started = false
}

// StartSession resets all state and opens a new session under the given
// scenario. Unknown scenario ids fall back to the default profile.
func (e *Engine) StartSession(scenarioID string) {
	e.Reset()
	if KnownScenario(scenarioID) {
		e.scenarioID = scenarioID
	}
	e.sessionStart = e.now()
	e.started = true
}

// Started reports whether a session is open.
func (e *Engine) Started() bool { return e.started }

func (e *Engine) elapsedSeconds() float64 {
	if !e.started {
		return 0
	}
	return e.now().Sub(e.sessionStart).Seconds()
}

// ProcessFrame accumulates one landmark frame. Frames without a face,
// blendshapes, or transform count toward total frames but update nothing
// else; upstream detection is noisy and a dropped frame is routine.
func (e *Engine) ProcessFrame(f *LandmarkFrame) {
	if !e.started {
		return
	}
	e.totalFrames++
	if !f.Valid() {
		return
	}
	e.validFrames++

	smile := f.shapeAvg("mouthSmileLeft", "mouthSmileRight")
	jawOpen := f.shape("jawOpen")
	browDown := f.shapeAvg("browDownLeft", "browDownRight")
	browUp := f.shapeAvg("browOuterUpLeft", "browOuterUpRight")
	lipPress := f.shapeAvg("mouthPressLeft", "mouthPressRight")

	m := f.Transform
	yaw := math.Asin(-m[8])
	pitch := math.Atan2(m[9], m[10])
	roll := math.Atan2(m[4], m[0])
	now := e.now()
	pose := &headPose{yaw: yaw, pitch: pitch, roll: roll, at: now}

	e.smileScores = append(e.smileScores, smile)
	e.browFurrowScores = append(e.browFurrowScores, browDown)
	e.mouthOpenScores = append(e.mouthOpenScores, jawOpen)
	e.jawOpenScores = append(e.jawOpenScores, jawOpen)
	e.lipPressScores = append(e.lipPressScores, lipPress)
	if e.totalFrames <= openingSeconds*framesPerSecond {
		e.openingSmileScores = append(e.openingSmileScores, smile)
	}

	if smile >= 0.15 && smile <= 0.55 {
		e.controlledSmileFrames++
	}
	if smile > 0.60 {
		e.highSmileFrames++
	}
	if browDown > 0.40 {
		e.furrowedBrowFrames++
	}

	// Even-frame decimation keeps one blink from being counted twice across
	// consecutive frames.
	if f.shape("eyeBlinkLeft") > 0.6 && e.totalFrames%2 == 0 {
		e.blinkTimestamps = append(e.blinkTimestamps, now)
	}

	e.pitchWindow.Push(pitch)

	if math.Abs(yaw) < yawStrictThreshold && math.Abs(pitch) < pitchStrictThreshold {
		e.eyeContactFrames++
		e.currentAwayGaze = 0
	} else {
		e.awayGazeFrames++
		e.lookingAwayFrames++
		e.currentAwayGaze++
		if e.currentAwayGaze > e.longestAwayGaze {
			e.longestAwayGaze = e.currentAwayGaze
		}
	}

	if e.lastPose != nil {
		dYaw := pose.yaw - e.lastPose.yaw
		dPitch := pose.pitch - e.lastPose.pitch
		dRoll := pose.roll - e.lastPose.roll

		jitterDeg := (math.Abs(dYaw) + math.Abs(dPitch) + math.Abs(dRoll)) * 180 / math.Pi
		e.poseJitter.Push(jitterDeg)

		if math.Abs(dYaw) > shakeYawThreshold && now.Sub(e.lastShakeAt) > headGestureDebounce {
			e.headShakeCount++
			e.lastShakeAt = now
		}
		if math.Abs(dRoll) > tiltRollThreshold && now.Sub(e.lastTiltAt) > headGestureDebounce {
			e.headTiltCount++
			e.lastTiltAt = now
		}
		if math.Abs(dPitch) > nodPitchThreshold && now.Sub(e.lastNodAt) > headGestureDebounce {
			e.nodCount++
			e.lastNodAt = now
		}
	}
	e.lastPose = pose

	t := now.Sub(e.sessionStart).Seconds()
	probs := softmax(e.scorer.Score(f))
	dominant := EmotionLabels[argmax(probs)]
	top := maxProb(probs)
	e.timeline = append(e.timeline, TimelineEvent{T: t, Label: dominant, Probs: probs})

	if jawOpen > yawnJawOpenThreshold {
		e.sustainedJawOpenFrames++
	} else {
		e.sustainedJawOpenFrames = 0
		e.isYawning = false
	}
	// One count per sustained event, not one per frame above threshold.
	if e.sustainedJawOpenFrames > yawnDurationFrames && !e.isYawning {
		e.yawnCount++
		e.isYawning = true
	}

	if dominant == "neutral" && top > 0.60 {
		e.neutralFaceFrames++
	} else {
		e.naturalExpressionFrames++
	}

	e.maybeCaptureKeyMoment(f, dominant, top, smile, jawOpen, browUp, t, now)
}

// maybeCaptureKeyMoment stores a client-supplied snapshot for frames that
// look like strong non-neutral expressions, rate limited per class.
func (e *Engine) maybeCaptureKeyMoment(f *LandmarkFrame, dominant string, top, smile, jawOpen, browUp, t float64, now time.Time) {
	frown := f.shapeAvg("mouthFrownLeft", "mouthFrownRight")
	browDown := f.shapeAvg("browDownLeft", "browDownRight")
	sneer := f.shapeAvg("noseSneerLeft", "noseSneerRight")

	strongAU := (dominant == "happy" && smile > 0.35) ||
		(dominant == "surprise" && (jawOpen > 0.50 || browUp > 0.45)) ||
		(dominant == "sad" && frown > 0.30) ||
		(dominant == "angry" && browDown > 0.35) ||
		(dominant == "disgust" && sneer > 0.30) ||
		(dominant == "fear" && top > 0.45)

	if dominant == "neutral" || (top <= 0.50 && !strongAU) {
		return
	}
	if now.Sub(e.captureCooldowns[dominant]) <= keyMomentCooldown {
		return
	}
	// No usable snapshot source degrades to a timeline-only moment.
	if f.ThumbB64 == "" {
		return
	}
	e.snapshots = append(e.snapshots, snapshot{t: t, b64: f.ThumbB64})
	e.captureCooldowns[dominant] = now
}

// AddTimelineEvent ingests one externally classified frame. The probability
// vector must match the fixed class count exactly; a mismatch is a hard
// error and the frame is not recorded.
func (e *Engine) AddTimelineEvent(t float64, probs []float64) error {
	if len(probs) != len(EmotionLabels) {
		return ErrProbLength
	}
	e.totalFrames++
	e.validFrames++

	dominant := EmotionLabels[argmax(probs)]
	e.timeline = append(e.timeline, TimelineEvent{T: t, Label: dominant, Probs: probs})

	// Class probabilities stand in for raw action-unit intensities so the
	// expressiveness score stays defined in file mode.
	e.smileScores = append(e.smileScores, probs[idxHappy])
	e.browFurrowScores = append(e.browFurrowScores, probs[idxSad])
	return nil
}

// shouldTriggerTip fires a tip keyed by a stable string at most once per
// cooldown window while its condition holds.
func (e *Engine) shouldTriggerTip(condition bool, key string, cooldown time.Duration) bool {
	if !condition {
		return false
	}
	now := e.now()
	if last, ok := e.tipFiredAt[key]; ok && now.Sub(last) <= cooldown {
		return false
	}
	e.tipFiredAt[key] = now
	return true
}
