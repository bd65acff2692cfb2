package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"irisload/internal/runner"
)

// Scenario is one load level of a multi-scenario run.
type Scenario struct {
	Name        string
	Description string
	Requests    int
	Concurrency int

	// Pause is waited before the scenario starts.
	Pause time.Duration
}

// Config applies the scenario's load level to base.
func (s Scenario) Config(base runner.Config) runner.Config {
	cfg := base
	cfg.TotalRequests = s.Requests
	cfg.Concurrency = s.Concurrency
	return cfg
}

type Plan struct {
	Name      string
	Scenarios []Scenario
}

// DefaultPlan is the bottleneck demonstration: normal load, load that should
// trigger autoscaling, and load beyond the replica ceiling.
func DefaultPlan() Plan {
	return Plan{
		Name: "bottleneck",
		Scenarios: []Scenario{
			{
				Name:        "normal",
				Description: "NORMAL LOAD - No Scaling Expected",
				Requests:    100,
				Concurrency: 5,
				Pause:       3 * time.Second,
			},
			{
				Name:        "high",
				Description: "HIGH LOAD - Auto-Scaling to 2-3 Pods",
				Requests:    1000,
				Concurrency: 10,
				Pause:       5 * time.Second,
			},
			{
				Name:        "extreme",
				Description: "EXTREME LOAD - Bottleneck at max_pods=3",
				Requests:    2000,
				Concurrency: 20,
				Pause:       5 * time.Second,
			},
		},
	}
}

func (p Plan) Validate() error {
	if len(p.Scenarios) == 0 {
		return errors.New("plan has no scenarios")
	}
	for i, s := range p.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenario %d: name is required", i)
		}
		if s.Requests <= 0 {
			return fmt.Errorf("scenario %q: %w: requests must be positive", s.Name, runner.ErrInvalidConfiguration)
		}
		if s.Concurrency <= 0 {
			return fmt.Errorf("scenario %q: %w: concurrency must be positive", s.Name, runner.ErrInvalidConfiguration)
		}
		if s.Pause < 0 {
			return fmt.Errorf("scenario %q: pause must not be negative", s.Name)
		}
	}
	return nil
}

// ScalePauses multiplies every pause by factor; 0 removes them.
func (p Plan) ScalePauses(factor float64) Plan {
	out := Plan{Name: p.Name, Scenarios: make([]Scenario, len(p.Scenarios))}
	for i, s := range p.Scenarios {
		s.Pause = time.Duration(float64(s.Pause) * factor)
		out.Scenarios[i] = s
	}
	return out
}

// fileConfig is the on-disk form; durations are strings like "5s".
type fileConfig struct {
	Name      string         `yaml:"name" json:"name"`
	Scenarios []fileScenario `yaml:"scenarios" json:"scenarios"`
}

type fileScenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Requests    int    `yaml:"requests" json:"requests"`
	Concurrency int    `yaml:"concurrency" json:"concurrency"`
	Pause       string `yaml:"pause" json:"pause"`
}

// LoadFile reads a plan from YAML or JSON, chosen by extension.
func LoadFile(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Plan{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return Plan{}, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return Plan{}, fmt.Errorf("unsupported plan format: %s", ext)
	}

	plan := Plan{Name: fc.Name}
	if plan.Name == "" {
		plan.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, fs := range fc.Scenarios {
		s := Scenario{
			Name:        fs.Name,
			Description: fs.Description,
			Requests:    fs.Requests,
			Concurrency: fs.Concurrency,
		}
		if fs.Pause != "" {
			d, err := time.ParseDuration(fs.Pause)
			if err != nil {
				return Plan{}, fmt.Errorf("scenario %q: invalid pause: %w", fs.Name, err)
			}
			s.Pause = d
		}
		plan.Scenarios = append(plan.Scenarios, s)
	}

	if err := plan.Validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}
