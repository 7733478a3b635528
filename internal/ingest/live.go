package ingest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/facecoach/internal/analysis"
)

// FrameGrabber abstracts a live capture source. Position advances with
// playback; Grab runs the landmark detector against the current frame. A
// grab without a detectable face returns an invalid frame, which the engine
// counts but does not accumulate.
type FrameGrabber interface {
	Position() float64
	Grab() (*analysis.LandmarkFrame, error)
}

// LiveFeeder polls a capture source on a fixed tick. A tick is eligible only
// when playback advanced since the previous tick, and only every Nth
// eligible tick is processed, so the detector runs well below the capture
// rate.
type LiveFeeder struct {
	Sink    FrameSink
	Grabber FrameGrabber
	Logger  *logrus.Logger

	// Interval is the poll tick; zero means ~30 ticks per second.
	Interval time.Duration
	// Decimation processes every Nth eligible tick; zero means every 2nd.
	Decimation int
}

func (l *LiveFeeder) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = time.Second / 30
	}
	decimation := l.Decimation
	if decimation <= 0 {
		decimation = 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPos := -1.0
	eligible := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		pos := l.Grabber.Position()
		if pos == lastPos {
			continue
		}
		lastPos = pos

		eligible++
		if eligible%decimation != 0 {
			continue
		}

		frame, err := l.Grabber.Grab()
		if err != nil {
			// Capture failures belong to the source; stop and surface them.
			return err
		}
		l.Sink.ProcessFrame(frame)
	}
}
