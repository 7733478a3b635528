package ingest

import (
	"context"

	"github.com/yoockh/facecoach/internal/analysis"
)

// FrameSink is the engine-facing end of every feeder. Both ingestion modes
// terminate in these two entry points; the accumulation core stays
// ingestion-agnostic.
type FrameSink interface {
	ProcessFrame(f *analysis.LandmarkFrame)
	AddTimelineEvent(t float64, probs []float64) error
}

// FrameFeeder drives frames from one source into a sink until the source is
// exhausted or the context is cancelled.
type FrameFeeder interface {
	Run(ctx context.Context) error
}
