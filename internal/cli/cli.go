package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"irisload/internal/export"
	"irisload/internal/logger"
	"irisload/internal/publish"
	"irisload/internal/runner"
	"irisload/internal/storage"
	"irisload/internal/tui/live"
)

const rule = "======================================================================"

// Options selects the optional sinks of a run. Zero value: plain report only.
type Options struct {
	Out io.Writer

	TUI       bool
	OutPrefix string
	Store     *storage.Store
	Publisher publish.Publisher

	// Scenario labels history entries written by the scenario driver.
	Scenario string
}

func (o Options) writer() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// Start runs one load test and prints its report. Per-attempt failures
// never make it fail; config errors and sink errors do.
func Start(ctx context.Context, cfg runner.Config, opts Options) (*runner.Result, error) {
	w := opts.writer()

	r, err := runner.NewRunner(cfg, nil)
	if err != nil {
		return nil, err
	}

	printHeader(w, cfg, time.Now())

	var res *runner.Result
	if opts.TUI {
		res, err = live.Run(ctx, r, nil)
	} else {
		r.OnProgress = progressPrinter(w)
		res, err = r.Run(ctx)
	}
	if err != nil {
		return nil, err
	}

	if res.Canceled {
		fmt.Fprintf(w, "\n⚠️  Run canceled: %d/%d attempts recorded\n", len(res.Outcomes), cfg.TotalRequests)
	}
	PrintReport(w, res.Summary())

	return res, handleAutoReport(ctx, w, res, opts)
}

func printHeader(w io.Writer, cfg runner.Config, start time.Time) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "🔥 LOAD TEST STARTING\n")
	fmt.Fprintf(w, "%s\n", rule)
	fmt.Fprintf(w, "Target URL: %s\n", cfg.TargetURL)
	fmt.Fprintf(w, "Total Requests: %d\n", cfg.TotalRequests)
	fmt.Fprintf(w, "Concurrent Workers: %d\n", cfg.Concurrency)
	fmt.Fprintf(w, "Start Time: %s\n", start.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "%s\n\n", rule)
}

func progressPrinter(w io.Writer) runner.ProgressFunc {
	return func(p runner.Progress) {
		fmt.Fprintf(w, "Progress: %d/%d requests (%.1f%%) | Rate: %.1f req/s\n",
			p.Completed, p.Total, p.Percent(), p.Rate())
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// PrintReport writes the fixed results block for s.
func PrintReport(w io.Writer, s runner.Summary) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintf(w, "📊 LOAD TEST RESULTS\n")
	fmt.Fprintf(w, "%s\n", rule)

	fmt.Fprintf(w, "\n⏱️  Duration & Throughput:\n")
	fmt.Fprintf(w, "   Total Time: %.2fs\n", s.TotalDuration.Seconds())
	fmt.Fprintf(w, "   Requests/sec: %.2f\n", s.Throughput)
	fmt.Fprintf(w, "   Avg Request Time: %.2fms\n", ms(s.Mean))

	fmt.Fprintf(w, "\n✅ Success Rate:\n")
	fmt.Fprintf(w, "   Successful: %d/%d (%.1f%%)\n", s.SuccessCount, s.Requested, s.SuccessRate())
	fmt.Fprintf(w, "   Failed: %d/%d (%.1f%%)\n", s.FailureCount, s.Requested, s.FailureRate())

	fmt.Fprintf(w, "\n📈 Response Time Percentiles:\n")
	fmt.Fprintf(w, "   Min: %.2fms\n", ms(s.Min))
	fmt.Fprintf(w, "   P50 (median): %.2fms\n", ms(s.P50))
	fmt.Fprintf(w, "   P95: %.2fms\n", ms(s.P95))
	fmt.Fprintf(w, "   P99: %.2fms\n", ms(s.P99))
	fmt.Fprintf(w, "   Max: %.2fms\n", ms(s.Max))

	if s.FailureCount > 0 {
		fmt.Fprintf(w, "\n❌ Errors:\n")
		for _, l := range errorLines(s) {
			fmt.Fprintf(w, "   %s: %d\n", l.text, l.count)
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", rule)
}

type errorLine struct {
	text  string
	count int
}

// errorLines merges transport errors and HTTP statuses, most frequent first.
func errorLines(s runner.Summary) []errorLine {
	lines := make([]errorLine, 0, len(s.Errors)+len(s.Statuses))
	for text, n := range s.Errors {
		lines = append(lines, errorLine{text, n})
	}
	for code, n := range s.Statuses {
		lines = append(lines, errorLine{fmt.Sprintf("HTTP %d", code), n})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].count != lines[j].count {
			return lines[i].count > lines[j].count
		}
		return lines[i].text < lines[j].text
	})
	return lines
}

func handleAutoReport(ctx context.Context, w io.Writer, res *runner.Result, opts Options) error {
	var errs []error

	if opts.OutPrefix != "" {
		if err := export.All(res, opts.OutPrefix); err != nil {
			logger.Error("export", "%v", err)
			errs = append(errs, err)
		} else {
			fmt.Fprintf(w, "💾 Reports saved to %s.{csv,json,_summary.json}\n", opts.OutPrefix)
		}
	}

	if opts.Store == nil && opts.Publisher == nil {
		return errors.Join(errs...)
	}
	item := storage.NewHistoryItem(res, opts.Scenario)

	if opts.Store != nil {
		if err := opts.Store.Save(item); err != nil {
			logger.Error("history", "save run %s: %v", item.ID, err)
			errs = append(errs, fmt.Errorf("save history: %w", err))
		} else {
			logger.Info("history", "saved run %s", item.ID)
		}
	}

	if opts.Publisher != nil {
		if err := opts.Publisher.Publish(ctx, item); err != nil {
			logger.Error("publish", "%v", err)
			errs = append(errs, err)
		} else {
			logger.Info("publish", "published run %s", item.ID)
		}
	}

	return errors.Join(errs...)
}

// progressBar renders pct (0..1) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	filled := max(0, min(int(pct*float64(width)), width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}
