package runner

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"

	"irisload/internal/stats"
)

const tickInterval = 200 * time.Millisecond

// StatsUpdateChan carries periodic live snapshots, e.g. to the TUI.
type StatsUpdateChan chan stats.Snapshot

type Runner struct {
	Cfg    Config
	Live   *stats.Live
	Client *http.Client

	// Optional. Updates receives a snapshot every tick without blocking;
	// OnProgress is called from the collector every Cfg.ProgressEvery
	// completions.
	Updates    StatsUpdateChan
	OnProgress ProgressFunc
}

// NewRunner validates cfg and prepares a pooled HTTP client sized for it.
func NewRunner(cfg Config, updates StatsUpdateChan) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Runner{
		Cfg:     cfg,
		Live:    stats.NewLive(),
		Client:  client,
		Updates: updates,
	}, nil
}

// NewClient builds a client whose pool holds one connection per worker.
// Deadlines are applied per attempt, not on the client.
func NewClient(cfg Config) (*http.Client, error) {
	t := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.Concurrency * 2,
		MaxIdleConnsPerHost:   cfg.Concurrency,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ExpectContinueTimeout: time.Second,
	}
	if cfg.Insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("configure http2: %w", err)
		}
	}
	return &http.Client{Transport: t}, nil
}

// StartTickLoop pushes live snapshots until ctx is done.
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

func (r *Runner) sendUpdate() {
	if r.Updates == nil {
		return
	}
	select {
	case r.Updates <- r.Live.Snapshot():
	default:
		// Consumer is behind; it will get the next one.
	}
}

// Run performs exactly Cfg.TotalRequests attempts with at most
// Cfg.Concurrency in flight and returns once every dispatched attempt has
// produced its outcome. Per-attempt failures are recorded, never returned.
//
// Cancelling ctx stops dispatch; in-flight attempts are recorded as
// canceled and the Result is marked Canceled.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.Cfg.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(r.Cfg.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	res := &Result{
		ID:        id.String(),
		Config:    r.Cfg,
		StartedAt: time.Now(),
	}

	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	r.StartTickLoop(tickCtx, tickInterval)

	outcomes := make(chan Outcome, r.Cfg.Concurrency)
	collected := make(chan []Outcome, 1)
	go r.collect(res.StartedAt, outcomes, collected)

	var g errgroup.Group
	g.SetLimit(r.Cfg.Concurrency)
	for i := 0; i < r.Cfg.TotalRequests; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			outcomes <- r.attempt(ctx, i, body)
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)

	res.Outcomes = <-collected
	res.Duration = time.Since(res.StartedAt)
	res.Canceled = ctx.Err() != nil
	r.sendUpdate()
	return res, nil
}

// collect is the single owner of the outcome slice.
func (r *Runner) collect(start time.Time, in <-chan Outcome, out chan<- []Outcome) {
	every := r.Cfg.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	all := make([]Outcome, 0, r.Cfg.TotalRequests)
	for o := range in {
		all = append(all, o)
		if r.OnProgress != nil && len(all)%every == 0 {
			snap := r.Live.Snapshot()
			r.OnProgress(Progress{
				Completed: len(all),
				Total:     r.Cfg.TotalRequests,
				Elapsed:   time.Since(start),
				Success:   snap.Success,
				Fail:      snap.Fail,
				P99Ms:     snap.P99Ms,
			})
		}
	}
	out <- all
}

func (r *Runner) attempt(ctx context.Context, id int, body []byte) Outcome {
	r.Live.Begin()
	start := time.Now()
	o := r.post(ctx, id, body)
	o.Duration = time.Since(start)
	r.Live.End(o.Success, o.Duration)
	return o
}

func (r *Runner) post(ctx context.Context, id int, body []byte) Outcome {
	o := Outcome{ID: id}

	actx, cancel := context.WithTimeout(ctx, r.Cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, r.Cfg.PredictURL(), bytes.NewReader(body))
	if err != nil {
		o.Kind = KindTransport
		o.Error = (&AttemptError{Kind: KindTransport, Err: err}).Error()
		return o
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := r.Client.Do(req)
	if err != nil {
		aerr := classify(ctx, err)
		o.Kind = aerr.Kind
		o.Error = aerr.Error()
		return o
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	o.StatusCode = resp.StatusCode
	if err != nil {
		aerr := classify(ctx, err)
		o.Kind = aerr.Kind
		o.Error = aerr.Error()
		return o
	}
	if resp.StatusCode == http.StatusOK {
		o.Success = true
	} else {
		o.Kind = KindStatus
	}
	return o
}
