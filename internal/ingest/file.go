package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
)

// VectorRecord is one externally classified frame from an uploaded video:
// timestamp plus a probability vector in the canonical class order.
type VectorRecord struct {
	T     float64   `json:"t"`
	Probs []float64 `json:"probs"`
}

// VectorSource yields classified frames in timestamp order. Next returns
// io.EOF when the source is exhausted.
type VectorSource interface {
	Next() (*VectorRecord, error)
}

// FileFeeder is the file-mode pull loop: frames are drawn one at a time from
// a decoded source, not pushed, and a probability-vector contract violation
// aborts the whole run.
type FileFeeder struct {
	Sink   FrameSink
	Source VectorSource

	// Step fills in timestamps for sources that omit them; zero means the
	// 1/15 second sampling interval used by the upload analyzer.
	Step float64
}

func (f *FileFeeder) Run(ctx context.Context) error {
	step := f.Step
	if step <= 0 {
		step = 1.0 / 15
	}

	cursor := 0.0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := f.Source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		t := rec.T
		if t == 0 && cursor > 0 {
			t = cursor
		}
		if err := f.Sink.AddTimelineEvent(t, rec.Probs); err != nil {
			return err
		}
		cursor += step
	}
}

// JSONLVectorSource reads newline-delimited VectorRecord JSON, the output
// format of the external video classifier.
type JSONLVectorSource struct {
	scanner *bufio.Scanner
}

func NewJSONLVectorSource(r io.Reader) *JSONLVectorSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLVectorSource{scanner: sc}
}

func (s *JSONLVectorSource) Next() (*VectorRecord, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec VectorRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
