package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"irisload/internal/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func item(t *testing.T, target string) HistoryItem {
	t.Helper()
	id, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("uuid: %v", err)
	}
	return HistoryItem{
		ID:          id.String(),
		Timestamp:   time.Now(),
		TargetURL:   target,
		Requests:    100,
		Concurrency: 5,
		Summary: runner.Summary{
			Requested:    100,
			SuccessCount: 98,
			FailureCount: 2,
			P95:          12 * time.Millisecond,
			Statuses:     map[int]int{503: 2},
			Errors:       map[string]int{},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	want := item(t, "http://a")

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Get(want.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TargetURL != want.TargetURL || got.Summary.SuccessCount != 98 || got.Summary.P95 != 12*time.Millisecond {
		t.Errorf("round trip lost data: %+v", got)
	}
	if got.Summary.Statuses[503] != 2 {
		t.Errorf("status histogram lost: %v", got.Summary.Statuses)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	s := openTestStore(t)
	var ids []string
	for _, target := range []string{"http://1", "http://2", "http://3"} {
		it := item(t, target)
		ids = append(ids, it.ID)
		if err := s.Save(it); err != nil {
			t.Fatalf("Save: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("expected newest first, got %v", []string{all[0].TargetURL, all[1].TargetURL, all[2].TargetURL})
	}

	two, err := s.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(two) != 2 || two[0].TargetURL != "http://3" {
		t.Errorf("limit not applied: %+v", two)
	}
}

func TestSaveRequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.Save(HistoryItem{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	it := item(t, "http://persist")
	if err := s.Save(it); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(it.ID); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestNewHistoryItem(t *testing.T) {
	res := &runner.Result{
		ID:        "0190-abc",
		Config:    runner.Config{TargetURL: "http://svc", TotalRequests: 2, Concurrency: 1},
		StartedAt: time.Unix(1700000000, 0),
		Duration:  time.Second,
		Outcomes: []runner.Outcome{
			{ID: 0, StatusCode: 200, Success: true, Duration: time.Millisecond},
			{ID: 1, StatusCode: 500, Kind: runner.KindStatus},
		},
	}
	it := NewHistoryItem(res, "high")
	if it.ID != "0190-abc" || it.Scenario != "high" || it.Requests != 2 || it.Summary.SuccessCount != 1 || it.Summary.FailureCount != 1 {
		t.Errorf("unexpected item %+v", it)
	}
}
