package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"irisload/internal/runner"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaultPlan(t *testing.T) {
	p := DefaultPlan()
	if err := p.Validate(); err != nil {
		t.Fatalf("default plan invalid: %v", err)
	}

	want := []struct {
		name        string
		requests    int
		concurrency int
		pause       time.Duration
	}{
		{"normal", 100, 5, 3 * time.Second},
		{"high", 1000, 10, 5 * time.Second},
		{"extreme", 2000, 20, 5 * time.Second},
	}
	if len(p.Scenarios) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(p.Scenarios))
	}
	for i, w := range want {
		s := p.Scenarios[i]
		if s.Name != w.name || s.Requests != w.requests || s.Concurrency != w.concurrency || s.Pause != w.pause {
			t.Errorf("scenario %d = %+v, want %+v", i, s, w)
		}
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "soak.yaml", `
name: soak
scenarios:
  - name: warmup
    requests: 50
    concurrency: 2
  - name: peak
    description: push it
    requests: 500
    concurrency: 25
    pause: 1500ms
`)
	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Name != "soak" || len(p.Scenarios) != 2 {
		t.Fatalf("unexpected plan %+v", p)
	}
	peak := p.Scenarios[1]
	if peak.Requests != 500 || peak.Concurrency != 25 || peak.Pause != 1500*time.Millisecond || peak.Description != "push it" {
		t.Errorf("unexpected scenario %+v", peak)
	}
	if p.Scenarios[0].Pause != 0 {
		t.Errorf("omitted pause should be zero, got %s", p.Scenarios[0].Pause)
	}
}

func TestLoadFileJSONDefaultsNameFromFile(t *testing.T) {
	path := writeFile(t, "quick.json", `{"scenarios":[{"name":"only","requests":10,"concurrency":1,"pause":"0s"}]}`)
	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Name != "quick" {
		t.Errorf("name = %q, want quick", p.Name)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		isCfg   bool
	}{
		{"unsupported extension", "plan.toml", "x = 1", false},
		{"bad yaml", "plan.yaml", "scenarios: [", false},
		{"bad pause", "plan.yaml", "scenarios:\n  - {name: a, requests: 1, concurrency: 1, pause: soon}\n", false},
		{"empty", "plan.yaml", "name: nothing\n", false},
		{"zero requests", "plan.yaml", "scenarios:\n  - {name: a, requests: 0, concurrency: 1}\n", true},
		{"zero concurrency", "plan.json", `{"scenarios":[{"name":"a","requests":1,"concurrency":0}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.isCfg && !errors.Is(err, runner.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScalePauses(t *testing.T) {
	p := DefaultPlan()
	none := p.ScalePauses(0)
	half := p.ScalePauses(0.5)

	for i := range p.Scenarios {
		if none.Scenarios[i].Pause != 0 {
			t.Errorf("scenario %d: pause %s, want 0", i, none.Scenarios[i].Pause)
		}
		if half.Scenarios[i].Pause != p.Scenarios[i].Pause/2 {
			t.Errorf("scenario %d: pause %s, want %s", i, half.Scenarios[i].Pause, p.Scenarios[i].Pause/2)
		}
	}
	if p.Scenarios[0].Pause != 3*time.Second {
		t.Error("ScalePauses modified the original plan")
	}
}

func TestScenarioConfig(t *testing.T) {
	base := runner.DefaultConfig("http://svc:8000")
	cfg := Scenario{Name: "x", Requests: 7, Concurrency: 3}.Config(base)
	if cfg.TotalRequests != 7 || cfg.Concurrency != 3 || cfg.TargetURL != base.TargetURL || cfg.Timeout != base.Timeout {
		t.Errorf("unexpected config %+v", cfg)
	}
}
