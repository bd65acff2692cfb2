package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"irisload/internal/runner"
)

func sampleResult() *runner.Result {
	return &runner.Result{
		ID:        "run-1",
		Config:    runner.Config{TargetURL: "http://svc", TotalRequests: 3, Concurrency: 2},
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  time.Second,
		Outcomes: []runner.Outcome{
			{ID: 0, StatusCode: 200, Duration: 1500 * time.Microsecond, Success: true},
			{ID: 2, StatusCode: 503, Duration: time.Millisecond, Kind: runner.KindStatus},
			{ID: 1, Duration: 10 * time.Second, Kind: runner.KindTimeout, Error: "timeout: context deadline exceeded"},
		},
	}
}

func TestAll(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "report")
	res := sampleResult()

	if err := All(res, prefix); err != nil {
		t.Fatalf("All: %v", err)
	}

	f, err := os.Open(prefix + ".csv")
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[1][3] != "1.500" || rows[1][2] != "OK" {
		t.Errorf("unexpected first row %v", rows[1])
	}
	if rows[3][5] != "timeout" || rows[3][6] != "timeout: context deadline exceeded" || rows[3][2] != "No Response" {
		t.Errorf("unexpected timeout row %v", rows[3])
	}

	data, err := os.ReadFile(prefix + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var outcomes []runner.Outcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		t.Fatalf("decode outcomes: %v", err)
	}
	if len(outcomes) != 3 || outcomes[2].Kind != runner.KindTimeout {
		t.Errorf("unexpected outcomes %+v", outcomes)
	}

	data, err = os.ReadFile(prefix + "_summary.json")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var doc struct {
		ID      string         `json:"id"`
		Summary runner.Summary `json:"summary"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if doc.ID != "run-1" || doc.Summary.SuccessCount != 1 || doc.Summary.FailureCount != 2 || doc.Summary.Throughput != 3 {
		t.Errorf("unexpected summary %+v", doc)
	}
}

func TestCSVUnwritableDestination(t *testing.T) {
	err := CSV(nil, filepath.Join(t.TempDir(), "missing", "x.csv"))
	if err == nil {
		t.Error("expected error for missing directory")
	}
}
