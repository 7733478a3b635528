package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yoockh/facecoach/internal/analysis"
)

type fakeGrabber struct {
	mu      sync.Mutex
	pos     float64
	advance bool
	grabs   int
	err     error
}

func (g *fakeGrabber) Position() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.advance {
		g.pos += 1.0 / 30
	}
	return g.pos
}

func (g *fakeGrabber) Grab() (*analysis.LandmarkFrame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.grabs++
	return &analysis.LandmarkFrame{
		Blendshapes: map[string]float64{"jawOpen": 0.1},
		Transform:   make([]float64, 16),
	}, nil
}

func (g *fakeGrabber) grabCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.grabs
}

type countingSink struct {
	mu     sync.Mutex
	frames int
}

func (s *countingSink) ProcessFrame(*analysis.LandmarkFrame) {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

func (s *countingSink) AddTimelineEvent(float64, []float64) error { return nil }

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func TestLiveFeederProcessesAdvancingSource(t *testing.T) {
	sink := &countingSink{}
	grabber := &fakeGrabber{advance: true}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	feeder := &LiveFeeder{Sink: sink, Grabber: grabber, Interval: time.Millisecond}
	if err := feeder.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v, want deadline exceeded", err)
	}

	if sink.count() == 0 {
		t.Fatal("no frames processed from an advancing source")
	}
	if sink.count() != grabber.grabCount() {
		t.Errorf("frames = %d, grabs = %d, want every grab processed",
			sink.count(), grabber.grabCount())
	}
}

func TestLiveFeederSkipsStalledSource(t *testing.T) {
	sink := &countingSink{}
	grabber := &fakeGrabber{advance: false} // playback position never moves

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	feeder := &LiveFeeder{Sink: sink, Grabber: grabber, Interval: time.Millisecond}
	_ = feeder.Run(ctx)

	// The first tick is eligible (position differs from the sentinel) but is
	// decimated away; everything after sees a stalled position.
	if got := sink.count(); got != 0 {
		t.Errorf("frames = %d, want 0 from a stalled source", got)
	}
}

func TestLiveFeederSurfacesGrabError(t *testing.T) {
	want := errors.New("camera gone")
	sink := &countingSink{}
	grabber := &fakeGrabber{advance: true, err: want}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	feeder := &LiveFeeder{Sink: sink, Grabber: grabber, Interval: time.Millisecond}
	if err := feeder.Run(ctx); !errors.Is(err, want) {
		t.Fatalf("Run err = %v, want grab error", err)
	}
	if sink.count() != 0 {
		t.Errorf("frames = %d, want 0 after failed grab", sink.count())
	}
}
