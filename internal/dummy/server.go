package dummy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"irisload/internal/logger"
)

type ServerConfig struct {
	Port int

	// Delay is added to every prediction, plus up to Jitter on top.
	Delay  time.Duration
	Jitter time.Duration

	// FailRate is the share (0..1) of predictions answered with 500.
	FailRate float64

	// Unloaded makes /health and /predict answer 503.
	Unloaded bool
}

// Server is a stand-in for the IRIS prediction API. The classifier is
// injected at construction; nothing is package-global.
type Server struct {
	cfg   ServerConfig
	model Classifier

	inflight atomic.Int64
	peak     atomic.Int64
	hits     atomic.Int64
}

func NewServer(cfg ServerConfig, model Classifier) *Server {
	if model == nil && !cfg.Unloaded {
		model = DecisionTree{}
	}
	return &Server{cfg: cfg, model: model}
}

// Features is the /predict request body.
type Features struct {
	SepalLength *float64 `json:"sepal_length"`
	SepalWidth  *float64 `json:"sepal_width"`
	PetalLength *float64 `json:"petal_length"`
	PetalWidth  *float64 `json:"petal_width"`
}

func (f Features) validate() error {
	switch {
	case f.SepalLength == nil:
		return errors.New("sepal_length: field required")
	case f.SepalWidth == nil:
		return errors.New("sepal_width: field required")
	case f.PetalLength == nil:
		return errors.New("petal_length: field required")
	case f.PetalWidth == nil:
		return errors.New("petal_width: field required")
	}
	return nil
}

func (f Features) sample() Sample {
	return Sample{*f.SepalLength, *f.SepalWidth, *f.PetalLength, *f.PetalWidth}
}

type Prediction struct {
	Species    string  `json:"species"`
	Confidence float64 `json:"confidence"`
}

type batchRequest struct {
	Samples []Features `json:"samples"`
}

type batchResponse struct {
	Predictions []Prediction `json:"predictions"`
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.root).Methods(http.MethodGet)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.predict).Methods(http.MethodPost)
	r.HandleFunc("/predict/batch", s.predictBatch).Methods(http.MethodPost)
	r.Use(s.track)
	return r
}

// track maintains the in-flight gauge and its high-water mark.
func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		n := s.inflight.Add(1)
		defer s.inflight.Add(-1)
		for {
			p := s.peak.Load()
			if n <= p || s.peak.CompareAndSwap(p, n) {
				break
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Inflight() int64 { return s.inflight.Load() }
func (s *Server) Peak() int64     { return s.peak.Load() }
func (s *Server) Hits() int64     { return s.hits.Load() }

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "IRIS Classifier API",
		"status":       "healthy",
		"model_loaded": s.loaded(),
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	if !s.loaded() {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	var f Features
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := f.validate(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !s.loaded() {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	if !s.wait(r.Context()) {
		return
	}
	if s.cfg.FailRate > 0 && rand.Float64() < s.cfg.FailRate {
		writeDetail(w, http.StatusInternalServerError, "prediction failed")
		return
	}
	writeJSON(w, http.StatusOK, s.classify(f.sample()))
}

func (s *Server) predictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	for i, f := range req.Samples {
		if err := f.validate(); err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("samples[%d].%v", i, err))
			return
		}
	}
	if !s.loaded() {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	if !s.wait(r.Context()) {
		return
	}
	resp := batchResponse{Predictions: make([]Prediction, 0, len(req.Samples))}
	for _, f := range req.Samples {
		resp.Predictions = append(resp.Predictions, s.classify(f.sample()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) classify(x Sample) Prediction {
	species, confidence := s.model.Predict(x)
	return Prediction{Species: species, Confidence: confidence}
}

func (s *Server) loaded() bool {
	return s.model != nil && !s.cfg.Unloaded
}

// wait applies the configured latency; false if the client went away first.
func (s *Server) wait(ctx context.Context) bool {
	d := s.cfg.Delay
	if s.cfg.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.cfg.Jitter)))
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// Start serves on cfg.Port in the background and returns the server so the
// caller can shut it down.
func Start(cfg ServerConfig) *http.Server {
	s := NewServer(cfg, nil)
	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("👻 Dummy IRIS API running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: GET /, GET /health, POST /predict, POST /predict/batch")

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("dummy", "server failed: %v", err)
		}
	}()
	return server
}
