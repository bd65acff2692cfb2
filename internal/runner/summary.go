package runner

import (
	"time"

	"irisload/internal/stats"
)

// Summary is the reduction of one run's outcomes.
type Summary struct {
	Requested     int           `json:"requested"`
	Completed     int           `json:"completed"`
	TotalDuration time.Duration `json:"total_duration"`
	Throughput    float64       `json:"throughput_req_per_sec"`
	SuccessCount  int           `json:"success_count"`
	FailureCount  int           `json:"failure_count"`

	// Successful attempts only; all zero when nothing succeeded.
	Min  time.Duration `json:"latency_min"`
	Mean time.Duration `json:"latency_mean"`
	P50  time.Duration `json:"latency_p50"`
	P95  time.Duration `json:"latency_p95"`
	P99  time.Duration `json:"latency_p99"`
	Max  time.Duration `json:"latency_max"`

	// Errors counts transport failures by their error text. Non-200
	// responses are counted in Statuses instead.
	Errors   map[string]int `json:"error_histogram"`
	Statuses map[int]int    `json:"status_histogram"`

	Canceled bool `json:"canceled,omitempty"`
}

// Summarize reduces outcomes in one pass. Throughput divides by requested,
// not len(outcomes). outcomes is not modified.
func Summarize(outcomes []Outcome, requested int, elapsed time.Duration) Summary {
	s := Summary{
		Requested:     requested,
		Completed:     len(outcomes),
		TotalDuration: elapsed,
		Errors:        make(map[string]int),
		Statuses:      make(map[int]int),
	}
	if elapsed > 0 {
		s.Throughput = float64(requested) / elapsed.Seconds()
	}

	durations := make([]time.Duration, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			s.SuccessCount++
			durations = append(durations, o.Duration)
			continue
		}
		s.FailureCount++
		if o.Error != "" {
			s.Errors[o.Error]++
		} else {
			s.Statuses[o.StatusCode]++
		}
	}

	if len(durations) == 0 {
		return s
	}
	sorted := stats.Sorted(durations)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = stats.Mean(sorted)
	s.P50 = stats.Median(sorted)
	s.P95 = stats.NearestRank(sorted, 0.95)
	s.P99 = stats.NearestRank(sorted, 0.99)
	return s
}

// SuccessRate is the successful share of the requested attempts, 0..100.
func (s Summary) SuccessRate() float64 {
	if s.Requested == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.Requested) * 100
}

func (s Summary) FailureRate() float64 {
	if s.Requested == 0 {
		return 0
	}
	return float64(s.FailureCount) / float64(s.Requested) * 100
}
