package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"irisload/internal/cli"
	"irisload/internal/runner"
	"irisload/internal/storage"
	"irisload/internal/tui/history"
	"irisload/internal/tui/styles"
)

var (
	historyLimit  int
	historyBrowse bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := historyPath()
		if err != nil {
			return err
		}
		store, err := storage.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		items, err := store.List(historyLimit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved runs. Use --save to record one.")
			return nil
		}
		if historyBrowse {
			return history.Browse(items, renderSummary, nil)
		}
		fmt.Fprintln(cmd.OutOrStdout(), historyTable(items))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "show at most this many runs (0 for all)")
	historyCmd.Flags().BoolVarP(&historyBrowse, "browse", "b", false, "browse runs interactively")
}

func renderSummary(s runner.Summary) string {
	var b strings.Builder
	cli.PrintReport(&b, s)
	return b.String()
}

func historyTable(items []storage.HistoryItem) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Subtle).
		Headers("ID", "TIME", "TARGET", "SCENARIO", "REQ", "WORKERS", "SUCCESS", "REQ/S", "P95")
	for _, it := range items {
		s := it.Summary
		scenario := it.Scenario
		if scenario == "" {
			scenario = "-"
		}
		t.Row(
			it.ID,
			it.Timestamp.Local().Format(time.DateTime),
			it.TargetURL,
			scenario,
			fmt.Sprint(it.Requests),
			fmt.Sprint(it.Concurrency),
			fmt.Sprintf("%.1f%%", s.SuccessRate()),
			fmt.Sprintf("%.2f", s.Throughput),
			fmt.Sprintf("%.2fms", float64(s.P95)/float64(time.Millisecond)),
		)
	}
	return t.Render()
}
