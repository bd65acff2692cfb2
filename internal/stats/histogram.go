package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// maxTrackable bounds the histogram; attempts are capped by their timeout
// well below this.
const maxTrackable = 10 * time.Minute

// SafeHistogram is a mutex-guarded hdrhistogram of latencies in microseconds.
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	h := hdrhistogram.New(1, int64(maxTrackable/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// Record adds d, clamped into the trackable range.
func (h *SafeHistogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if limit := int64(maxTrackable / time.Microsecond); us > limit {
		us = limit
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.hist.RecordValue(us)
}

// QuantileMs returns the q-th percentile (0..100) in milliseconds.
func (h *SafeHistogram) QuantileMs(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *SafeHistogram) MeanMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean() / 1000.0
}

func (h *SafeHistogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Max()) / 1000.0
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

func (h *SafeHistogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hist.Reset()
}
