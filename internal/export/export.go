package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"irisload/internal/runner"
)

var csvHeader = []string{
	"id", "status_code", "status_text", "duration_ms", "success", "kind", "error",
}

// CSV writes one row per outcome.
func CSV(outcomes []runner.Outcome, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		record := []string{
			strconv.Itoa(o.ID),
			strconv.Itoa(o.StatusCode),
			statusText(o.StatusCode),
			strconv.FormatFloat(float64(o.Duration.Microseconds())/1000.0, 'f', 3, 64),
			strconv.FormatBool(o.Success),
			string(o.Kind),
			o.Error,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// JSON writes the raw outcomes.
func JSON(outcomes []runner.Outcome, filename string) error {
	return writeJSON(outcomes, filename)
}

// Summary writes the run summary plus the run identity.
func Summary(res *runner.Result, filename string) error {
	doc := struct {
		ID        string         `json:"id"`
		TargetURL string         `json:"target_url"`
		StartedAt string         `json:"started_at"`
		Summary   runner.Summary `json:"summary"`
	}{
		ID:        res.ID,
		TargetURL: res.Config.TargetURL,
		StartedAt: res.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		Summary:   res.Summary(),
	}
	return writeJSON(doc, filename)
}

// All writes prefix.csv, prefix.json and prefix_summary.json.
func All(res *runner.Result, prefix string) error {
	if err := CSV(res.Outcomes, prefix+".csv"); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if err := JSON(res.Outcomes, prefix+".json"); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := Summary(res, prefix+"_summary.json"); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

func writeJSON(v any, filename string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// statusText labels the statuses the prediction API is known to return.
func statusText(code int) string {
	switch code {
	case 0:
		return "No Response"
	case 200:
		return "OK"
	case 422:
		return "Unprocessable Entity"
	case 500:
		return "Internal Server Error"
	case 502:
		return "Bad Gateway"
	case 503:
		return "Service Unavailable"
	case 504:
		return "Gateway Timeout"
	default:
		return ""
	}
}
