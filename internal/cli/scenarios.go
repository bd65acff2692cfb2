package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"irisload/internal/logger"
	"irisload/internal/runner"
	"irisload/internal/scenario"
	"irisload/internal/tui/styles"
)

// ScenarioResult pairs a scenario with the summary of its run.
type ScenarioResult struct {
	Scenario scenario.Scenario
	Summary  runner.Summary
}

// RunScenarios runs every scenario of plan against base.TargetURL in order,
// waiting each scenario's pause first. It stops at the first config error
// or when ctx is cancelled, returning the scenarios completed so far.
func RunScenarios(ctx context.Context, base runner.Config, plan scenario.Plan, opts Options) ([]ScenarioResult, error) {
	w := opts.writer()
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "🚀 SCENARIO PLAN: %s\n", plan.Name)
	fmt.Fprintf(w, "%s\n\n", rule)
	for i, s := range plan.Scenarios {
		fmt.Fprintf(w, "%d. %s (%d requests, %d workers)\n", i+1, s.Name, s.Requests, s.Concurrency)
	}

	results := make([]ScenarioResult, 0, len(plan.Scenarios))
	for _, s := range plan.Scenarios {
		cfg := s.Config(base)
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}

		if s.Pause > 0 {
			fmt.Fprintf(w, "\n⏳ Starting %s in %s...\n", s.Name, s.Pause)
			if err := sleep(ctx, s.Pause); err != nil {
				return results, err
			}
		}

		fmt.Fprintf(w, "\n%s\n", rule)
		fmt.Fprintf(w, "🔥 TEST: %s\n", describe(s))
		fmt.Fprintf(w, "%s\n", rule)

		logger.Debug("scenario", "starting %s: %d requests, %d workers", s.Name, s.Requests, s.Concurrency)
		sopts := opts
		sopts.Scenario = s.Name
		res, err := Start(ctx, cfg, sopts)
		if res != nil {
			results = append(results, ScenarioResult{Scenario: s, Summary: res.Summary()})
		}
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		if res.Canceled {
			break
		}
	}

	printComparison(w, results)
	return results, ctx.Err()
}

func describe(s scenario.Scenario) string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func printComparison(w io.Writer, results []ScenarioResult) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "✅ SCENARIO COMPARISON\n")
	fmt.Fprintf(w, "%s\n", rule)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Subtle).
		Headers("SCENARIO", "REQUESTS", "WORKERS", "SUCCESS", "REQ/S", "P50", "P95")
	for _, r := range results {
		s := r.Summary
		t.Row(
			r.Scenario.Name,
			fmt.Sprint(s.Requested),
			fmt.Sprint(r.Scenario.Concurrency),
			fmt.Sprintf("%5.1f%% %s", s.SuccessRate(), progressBar(s.SuccessRate()/100, 10)),
			fmt.Sprintf("%.2f", s.Throughput),
			fmt.Sprintf("%.2fms", ms(s.P50)),
			fmt.Sprintf("%.2fms", ms(s.P95)),
		)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%s\n", rule)
}
