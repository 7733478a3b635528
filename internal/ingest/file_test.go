package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yoockh/facecoach/internal/analysis"
)

type recordedEvent struct {
	t     float64
	probs []float64
}

type recordingSink struct {
	frames []*analysis.LandmarkFrame
	events []recordedEvent
	vecErr error
}

func (s *recordingSink) ProcessFrame(f *analysis.LandmarkFrame) {
	s.frames = append(s.frames, f)
}

func (s *recordingSink) AddTimelineEvent(t float64, probs []float64) error {
	if s.vecErr != nil {
		return s.vecErr
	}
	s.events = append(s.events, recordedEvent{t: t, probs: probs})
	return nil
}

type sliceSource struct {
	recs []VectorRecord
	i    int
}

func (s *sliceSource) Next() (*VectorRecord, error) {
	if s.i >= len(s.recs) {
		return nil, io.EOF
	}
	rec := s.recs[s.i]
	s.i++
	return &rec, nil
}

func TestFileFeederDrainsSource(t *testing.T) {
	sink := &recordingSink{}
	src := &sliceSource{recs: []VectorRecord{
		{T: 0.5, Probs: []float64{0.8, 0.05, 0.05, 0.05, 0.05}},
		{T: 1.0, Probs: []float64{0.05, 0.8, 0.05, 0.05, 0.05}},
	}}

	f := &FileFeeder{Sink: sink, Source: src}
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("events = %d, want 2", len(sink.events))
	}
	if sink.events[0].t != 0.5 || sink.events[1].t != 1.0 {
		t.Errorf("timestamps = %v, %v, want source values", sink.events[0].t, sink.events[1].t)
	}
}

func TestFileFeederSynthesizesTimestamps(t *testing.T) {
	sink := &recordingSink{}
	src := &sliceSource{recs: []VectorRecord{
		{Probs: []float64{1, 0, 0, 0, 0}},
		{Probs: []float64{1, 0, 0, 0, 0}},
		{Probs: []float64{1, 0, 0, 0, 0}},
	}}

	f := &FileFeeder{Sink: sink, Source: src, Step: 0.5}
	if err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.events) != 3 {
		t.Fatalf("events = %d, want 3", len(sink.events))
	}
	if sink.events[1].t != 0.5 || sink.events[2].t != 1.0 {
		t.Errorf("timestamps = %v, %v, want cursor-stepped values",
			sink.events[1].t, sink.events[2].t)
	}
}

func TestFileFeederAbortsOnSinkError(t *testing.T) {
	want := errors.New("contract violation")
	sink := &recordingSink{vecErr: want}
	src := &sliceSource{recs: []VectorRecord{
		{T: 0.1, Probs: []float64{1, 0}},
		{T: 0.2, Probs: []float64{1, 0}},
	}}

	f := &FileFeeder{Sink: sink, Source: src}
	if err := f.Run(context.Background()); !errors.Is(err, want) {
		t.Fatalf("Run err = %v, want sink error", err)
	}
	if src.i != 1 {
		t.Errorf("source position = %d, want 1 (run aborted)", src.i)
	}
}

func TestFileFeederStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	f := &FileFeeder{Sink: sink, Source: &sliceSource{recs: []VectorRecord{{T: 1}}}}
	if err := f.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("events = %d, want 0 after immediate cancel", len(sink.events))
	}
}

func TestJSONLVectorSource(t *testing.T) {
	input := `{"t":0.5,"probs":[0.8,0.05,0.05,0.05,0.05]}

{"t":1.0,"probs":[0.05,0.8,0.05,0.05,0.05]}
`
	src := NewJSONLVectorSource(strings.NewReader(input))

	first, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.T != 0.5 || len(first.Probs) != 5 {
		t.Errorf("first = %+v", first)
	}

	second, err := src.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.T != 1.0 {
		t.Errorf("second.T = %v, want 1.0 (blank line skipped)", second.T)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
}

func TestJSONLVectorSourceBadLine(t *testing.T) {
	src := NewJSONLVectorSource(strings.NewReader("not json\n"))
	if _, err := src.Next(); err == nil {
		t.Fatal("want decode error for malformed line")
	}
}
