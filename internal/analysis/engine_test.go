package analysis

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	e := NewEngine()
	e.now = clk.Now
	return e, clk
}

// identityTransform is a head looking straight at the camera: zero yaw,
// pitch, and roll.
func identityTransform() []float64 {
	return []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func frameWith(shapes map[string]float64) *LandmarkFrame {
	return &LandmarkFrame{Blendshapes: shapes, Transform: identityTransform()}
}

func TestStartSessionResetsEverything(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("comedy")

	for i := 0; i < 80; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(map[string]float64{"jawOpen": 0.9}))
	}
	if err := e.AddTimelineEvent(1.0, []float64{0.8, 0.05, 0.05, 0.05, 0.05}); err != nil {
		t.Fatalf("AddTimelineEvent: %v", err)
	}
	if e.yawnCount == 0 || len(e.timeline) == 0 {
		t.Fatal("expected accumulated state before restart")
	}

	e.StartSession("interview")

	if e.totalFrames != 0 {
		t.Errorf("totalFrames = %d, want 0", e.totalFrames)
	}
	if e.validFrames != 0 {
		t.Errorf("validFrames = %d, want 0", e.validFrames)
	}
	if len(e.timeline) != 0 {
		t.Errorf("timeline len = %d, want 0", len(e.timeline))
	}
	if e.yawnCount != 0 || e.isYawning || e.sustainedJawOpenFrames != 0 {
		t.Error("yawn state survived restart")
	}
	if len(e.smileScores) != 0 || len(e.blinkTimestamps) != 0 {
		t.Error("signal histories survived restart")
	}
	if len(e.tipFiredAt) != 0 || len(e.captureCooldowns) != 0 {
		t.Error("cooldown tables survived restart")
	}
	if e.scenarioID != "interview" {
		t.Errorf("scenarioID = %q, want %q", e.scenarioID, "interview")
	}
	if !e.Started() {
		t.Error("engine should be started after StartSession")
	}
}

func TestStartSessionUnknownScenarioFallsBack(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("underwater-basket-weaving")
	if e.scenarioID != "default" {
		t.Errorf("scenarioID = %q, want %q", e.scenarioID, "default")
	}
}

func TestYawnCountedOncePerSustainedEvent(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	yawn := map[string]float64{"jawOpen": 0.9}
	closed := map[string]float64{"jawOpen": 0.0}

	for i := 0; i < 200; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(yawn))
	}
	if e.yawnCount != 1 {
		t.Fatalf("yawnCount after sustained event = %d, want 1", e.yawnCount)
	}

	for i := 0; i < 10; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(closed))
	}
	for i := 0; i < 70; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(yawn))
	}
	if e.yawnCount != 2 {
		t.Fatalf("yawnCount after second event = %d, want 2", e.yawnCount)
	}
}

func TestAddTimelineEventRejectsBadVectorLength(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("default")

	err := e.AddTimelineEvent(0.5, []float64{0.5, 0.5})
	if !errors.Is(err, ErrProbLength) {
		t.Fatalf("err = %v, want ErrProbLength", err)
	}
	if e.totalFrames != 0 {
		t.Errorf("totalFrames = %d, want 0 after rejected vector", e.totalFrames)
	}
	if len(e.timeline) != 0 {
		t.Errorf("timeline len = %d, want 0 after rejected vector", len(e.timeline))
	}
}

func TestAddTimelineEventRecordsDominantAndProxies(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("default")

	probs := []float64{0.7, 0.1, 0.1, 0.05, 0.05}
	if err := e.AddTimelineEvent(2.5, probs); err != nil {
		t.Fatalf("AddTimelineEvent: %v", err)
	}

	if got := len(e.timeline); got != 1 {
		t.Fatalf("timeline len = %d, want 1", got)
	}
	ev := e.timeline[0]
	if ev.Label != "happy" {
		t.Errorf("label = %q, want %q", ev.Label, "happy")
	}
	if ev.T != 2.5 {
		t.Errorf("t = %v, want 2.5", ev.T)
	}
	if got := e.smileScores[len(e.smileScores)-1]; got != 0.7 {
		t.Errorf("smile proxy = %v, want 0.7", got)
	}
	if got := e.browFurrowScores[len(e.browFurrowScores)-1]; got != 0.1 {
		t.Errorf("brow proxy = %v, want 0.1", got)
	}
}

func TestInvalidFrameCountsTotalOnly(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("default")

	e.ProcessFrame(&LandmarkFrame{})

	if e.totalFrames != 1 {
		t.Errorf("totalFrames = %d, want 1", e.totalFrames)
	}
	if e.validFrames != 0 {
		t.Errorf("validFrames = %d, want 0", e.validFrames)
	}
	if len(e.timeline) != 0 {
		t.Errorf("timeline len = %d, want 0", len(e.timeline))
	}
}

func TestHeadShakeDebounce(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	turned := frameWith(map[string]float64{"mouthSmileLeft": 0.1})
	turned.Transform[8] = -0.1 // yaw about 0.1 rad

	e.ProcessFrame(frameWith(map[string]float64{"mouthSmileLeft": 0.1}))

	clk.Advance(33 * time.Millisecond)
	e.ProcessFrame(turned)
	if e.headShakeCount != 1 {
		t.Fatalf("headShakeCount = %d, want 1", e.headShakeCount)
	}

	// Swing back inside the debounce window: not a second shake.
	clk.Advance(33 * time.Millisecond)
	e.ProcessFrame(frameWith(map[string]float64{"mouthSmileLeft": 0.1}))
	if e.headShakeCount != 1 {
		t.Fatalf("headShakeCount = %d, want 1 inside debounce", e.headShakeCount)
	}

	clk.Advance(2 * time.Second)
	e.ProcessFrame(turned)
	if e.headShakeCount != 2 {
		t.Fatalf("headShakeCount = %d, want 2 after debounce", e.headShakeCount)
	}
}

func TestNodDetection(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	nodding := frameWith(map[string]float64{"mouthSmileLeft": 0.1})
	nodding.Transform[9] = 0.1 // pitch about 0.1 rad

	e.ProcessFrame(frameWith(map[string]float64{"mouthSmileLeft": 0.1}))
	clk.Advance(33 * time.Millisecond)
	e.ProcessFrame(nodding)
	if e.nodCount != 1 {
		t.Fatalf("nodCount = %d, want 1", e.nodCount)
	}

	clk.Advance(33 * time.Millisecond)
	e.ProcessFrame(frameWith(map[string]float64{"mouthSmileLeft": 0.1}))
	if e.nodCount != 1 {
		t.Fatalf("nodCount = %d, want 1 inside debounce", e.nodCount)
	}
}

func TestBlinkCountedOnEvenFramesOnly(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	blink := map[string]float64{"eyeBlinkLeft": 0.9}
	for i := 0; i < 4; i++ {
		clk.Advance(33 * time.Millisecond)
		e.ProcessFrame(frameWith(blink))
	}
	if got := len(e.blinkTimestamps); got != 2 {
		t.Fatalf("blink count = %d, want 2", got)
	}
}

func TestKeyMomentCapturePerClassCooldown(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	strongSmile := func() *LandmarkFrame {
		f := frameWith(map[string]float64{
			"mouthSmileLeft":  0.8,
			"mouthSmileRight": 0.8,
		})
		f.ThumbB64 = "data:image/jpeg;base64,aGVsbG8="
		return f
	}

	e.ProcessFrame(strongSmile())
	if got := len(e.snapshots); got != 1 {
		t.Fatalf("snapshots = %d, want 1", got)
	}

	clk.Advance(time.Second)
	e.ProcessFrame(strongSmile())
	if got := len(e.snapshots); got != 1 {
		t.Fatalf("snapshots = %d, want 1 inside cooldown", got)
	}

	clk.Advance(3 * time.Second)
	e.ProcessFrame(strongSmile())
	if got := len(e.snapshots); got != 2 {
		t.Fatalf("snapshots = %d, want 2 after cooldown", got)
	}
}

func TestKeyMomentRequiresSnapshot(t *testing.T) {
	e, _ := newTestEngine()
	e.StartSession("default")

	e.ProcessFrame(frameWith(map[string]float64{
		"mouthSmileLeft":  0.8,
		"mouthSmileRight": 0.8,
	}))
	if got := len(e.snapshots); got != 0 {
		t.Fatalf("snapshots = %d, want 0 without thumbnail", got)
	}
}

func TestShouldTriggerTipDebounce(t *testing.T) {
	e, clk := newTestEngine()
	e.StartSession("default")

	if !e.shouldTriggerTip(true, "k", 5*time.Second) {
		t.Fatal("first trigger should fire")
	}
	clk.Advance(2 * time.Second)
	if e.shouldTriggerTip(true, "k", 5*time.Second) {
		t.Fatal("trigger inside cooldown should not fire")
	}
	clk.Advance(4 * time.Second)
	if !e.shouldTriggerTip(true, "k", 5*time.Second) {
		t.Fatal("trigger after cooldown should fire")
	}
	if e.shouldTriggerTip(false, "other", time.Second) {
		t.Fatal("false condition should never fire")
	}
}

func TestProcessFrameIgnoredBeforeStart(t *testing.T) {
	e, _ := newTestEngine()
	e.ProcessFrame(frameWith(map[string]float64{"jawOpen": 0.5}))
	if e.totalFrames != 0 {
		t.Fatalf("totalFrames = %d, want 0 before start", e.totalFrames)
	}
}
