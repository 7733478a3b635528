package analysis

import "github.com/montanaflynn/stats"

// window is a bounded FIFO of float samples. Pushes beyond the cap evict the
// oldest sample.
type window struct {
	cap  int
	data []float64
}

func newWindow(capacity int) *window {
	return &window{cap: capacity}
}

func (w *window) Push(v float64) {
	w.data = append(w.data, v)
	if len(w.data) > w.cap {
		w.data = w.data[1:]
	}
}

func (w *window) Len() int { return len(w.data) }

func (w *window) Reset() { w.data = nil }

func (w *window) Mean() float64 {
	if len(w.data) == 0 {
		return 0
	}
	m, err := stats.Mean(w.data)
	if err != nil {
		return 0
	}
	return m
}

// tail returns up to the last n elements of s without copying.
func tail(s []float64, n int) []float64 {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	m, err := stats.Mean(s)
	if err != nil {
		return 0
	}
	return m
}

// stdDev is the population standard deviation; fewer than two samples yield 0.
func stdDev(s []float64) float64 {
	if len(s) < 2 {
		return 0
	}
	sd, err := stats.StdDevP(s)
	if err != nil {
		return 0
	}
	return sd
}
