package runner

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTotalRequests = 1000
	DefaultConcurrency   = 10
	DefaultTimeout       = 10 * time.Second
	DefaultProgressEvery = 100
)

// Payload is the fixed iris sample sent with every attempt.
type Payload struct {
	SepalLength float64 `json:"sepal_length" yaml:"sepal_length"`
	SepalWidth  float64 `json:"sepal_width" yaml:"sepal_width"`
	PetalLength float64 `json:"petal_length" yaml:"petal_length"`
	PetalWidth  float64 `json:"petal_width" yaml:"petal_width"`
}

// DefaultPayload is the setosa sample the reference scripts post.
func DefaultPayload() Payload {
	return Payload{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2}
}

type Config struct {
	TargetURL     string        `json:"target_url"`
	TotalRequests int           `json:"total_requests"`
	Concurrency   int           `json:"concurrency"`
	Payload       Payload       `json:"payload"`
	Timeout       time.Duration `json:"timeout"`

	// ProgressEvery controls how often OnProgress fires (in completed attempts).
	ProgressEvery int  `json:"progress_every"`
	HTTP2         bool `json:"http2"`
	// Insecure skips TLS verification, for self-signed cluster ingresses.
	Insecure bool `json:"insecure"`
}

// DefaultConfig returns a config for target with the reference defaults.
func DefaultConfig(target string) Config {
	return Config{
		TargetURL:     target,
		TotalRequests: DefaultTotalRequests,
		Concurrency:   DefaultConcurrency,
		Payload:       DefaultPayload(),
		Timeout:       DefaultTimeout,
		ProgressEvery: DefaultProgressEvery,
	}
}

// Validate rejects configs that would dispatch nothing or run unbounded.
func (c Config) Validate() error {
	if c.TotalRequests <= 0 {
		return fmt.Errorf("%w: total requests must be positive, got %d", ErrInvalidConfiguration, c.TotalRequests)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfiguration, c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidConfiguration, c.Timeout)
	}
	if c.TargetURL == "" {
		return fmt.Errorf("%w: target url is required", ErrInvalidConfiguration)
	}
	u, err := url.Parse(c.TargetURL)
	if err != nil {
		return fmt.Errorf("%w: target url: %v", ErrInvalidConfiguration, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: target url must be http or https, got %q", ErrInvalidConfiguration, c.TargetURL)
	}
	return nil
}

// PredictURL is the endpoint every attempt posts to.
func (c Config) PredictURL() string {
	return strings.TrimRight(c.TargetURL, "/") + "/predict"
}

// Outcome is the recorded result of one attempt.
type Outcome struct {
	ID         int           `json:"id"`
	StatusCode int           `json:"status_code"`
	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
	Kind       ErrorKind     `json:"kind,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Err rebuilds the typed failure of a failed outcome, nil on success.
func (o Outcome) Err() error {
	switch {
	case o.Success:
		return nil
	case o.Kind == KindStatus:
		return &UnexpectedStatusError{StatusCode: o.StatusCode}
	default:
		return &AttemptError{Kind: o.Kind, Err: errorString(o.Error)}
	}
}

// Result is everything one run produced, ready to be summarised.
type Result struct {
	ID        string        `json:"id"`
	Config    Config        `json:"config"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Outcomes  []Outcome     `json:"outcomes"`
	Canceled  bool          `json:"canceled"`
}

// Requested is the throughput denominator: the configured count for a
// completed run, the recorded count for a cancelled one.
func (r *Result) Requested() int {
	if r.Canceled {
		return len(r.Outcomes)
	}
	return r.Config.TotalRequests
}

func (r *Result) Summary() Summary {
	s := Summarize(r.Outcomes, r.Requested(), r.Duration)
	s.Canceled = r.Canceled
	return s
}

// Progress is reported every Config.ProgressEvery completions.
type Progress struct {
	Completed int
	Total     int
	Elapsed   time.Duration
	Success   uint64
	Fail      uint64
	P99Ms     float64
}

// Rate is the instantaneous completion rate in requests per second.
func (p Progress) Rate() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Completed) / p.Elapsed.Seconds()
}

// Percent is the completed share of the run, 0..100.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

type ProgressFunc func(Progress)
