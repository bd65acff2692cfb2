package stats

import (
	"sync/atomic"
	"time"
)

// Live holds counters updated while a run is in progress. It feeds progress
// lines and the TUI; the final summary is computed exactly from outcomes.
type Live struct {
	Requests atomic.Uint64
	Success  atomic.Uint64
	Fail     atomic.Uint64
	Inflight atomic.Int64
	Peak     atomic.Int64

	// Successful attempts only.
	Latency *SafeHistogram
}

func NewLive() *Live {
	return &Live{Latency: NewSafeHistogram()}
}

// Begin marks an attempt as in flight.
func (s *Live) Begin() {
	n := s.Inflight.Add(1)
	for {
		peak := s.Peak.Load()
		if n <= peak || s.Peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

// End records a finished attempt.
func (s *Live) End(success bool, d time.Duration) {
	s.Inflight.Add(-1)
	s.Requests.Add(1)
	if success {
		s.Success.Add(1)
		s.Latency.Record(d)
	} else {
		s.Fail.Add(1)
	}
}

func (s *Live) ErrorRate() float64 {
	reqs := s.Requests.Load()
	if reqs == 0 {
		return 0
	}
	return float64(s.Fail.Load()) / float64(reqs) * 100
}

// Snapshot is a copy of Live safe to hand to another goroutine.
type Snapshot struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Inflight int64
	Peak     int64

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

func (s *Live) Snapshot() Snapshot {
	return Snapshot{
		Requests: s.Requests.Load(),
		Success:  s.Success.Load(),
		Fail:     s.Fail.Load(),
		Inflight: s.Inflight.Load(),
		Peak:     s.Peak.Load(),
		P50Ms:    s.Latency.QuantileMs(50),
		P90Ms:    s.Latency.QuantileMs(90),
		P99Ms:    s.Latency.QuantileMs(99),
		MaxMs:    s.Latency.MaxMs(),
	}
}

func (s *Live) Reset() {
	s.Requests.Store(0)
	s.Success.Store(0)
	s.Fail.Store(0)
	s.Inflight.Store(0)
	s.Peak.Store(0)
	s.Latency.Reset()
}
