package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"statuswatch/app/internal/alerts"
	"statuswatch/app/internal/checker"
	"statuswatch/app/internal/history"
	"statuswatch/app/internal/logging"
	"statuswatch/app/internal/models"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeEvents struct {
	mu      sync.Mutex
	entries []string
	pruned  int
}

func (f *fakeEvents) InsertLog(level, category, site, message, details string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, level+"|"+category+"|"+site+"|"+message)
	return nil
}

func (f *fakeEvents) PruneLogs(int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned++
	return nil
}

type countingNotifier struct {
	mu   sync.Mutex
	sent []alerts.Notification
}

func (c *countingNotifier) Notify(_ context.Context, n alerts.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newRunner(t *testing.T, sites []models.SiteConfig, c *clock) (*Runner, *fakeEvents) {
	t.Helper()
	dir := t.TempDir()
	events := &fakeEvents{}
	return &Runner{
		Sites:       sites,
		Interval:    2 * time.Minute,
		Retention:   6 * time.Hour,
		Store:       history.NewStore(filepath.Join(dir, "status.json"), nil),
		LockPath:    filepath.Join(dir, "status.lock"),
		LockTimeout: time.Second,
		Probe:       checker.Options{Timeout: 2 * time.Second, Budget: 5 * time.Second, Concurrency: 4},
		Events:      events,
		Logger:      logging.Discard(),
		Now:         c.Now,
	}, events
}

func TestRunOnce_RecordsEveryConfiguredSite(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	maint := statusServer(t, http.StatusServiceUnavailable)
	down := statusServer(t, http.StatusInternalServerError)
	sites := []models.SiteConfig{
		{Name: "up", URL: up.URL},
		{Name: "maint", URL: maint.URL},
		{Name: "down", URL: down.URL},
	}
	c := &clock{t: t0.Add(500 * time.Millisecond)}
	r, events := newRunner(t, sites, c)

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !report.Time.Equal(t0) {
		t.Errorf("cycle time = %v, want truncated %v", report.Time, t0)
	}
	if report.Down != 1 {
		t.Errorf("Down = %d, want 1", report.Down)
	}

	h, err := r.Store.Load()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]models.Status{"up": models.StatusUp, "maint": models.StatusMaintenance, "down": models.StatusDown}
	for name, status := range want {
		if len(h[name]) != 1 || h[name][0].Status != status || !h[name][0].Time.Equal(t0) {
			t.Errorf("%s history = %+v", name, h[name])
		}
	}
	if len(events.entries) != 3 || events.pruned != 1 {
		t.Errorf("events=%d pruned=%d", len(events.entries), events.pruned)
	}
}

func TestRunOnce_FillsMissedCycles(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: up.URL}}, c)

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	// Two cycles missed.
	c.t = t0.Add(6 * time.Minute)
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	h, _ := r.Store.Load()
	got := h["A"]
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4: %+v", len(got), got)
	}
	wantStatus := []models.Status{models.StatusUp, models.StatusDown, models.StatusDown, models.StatusUp}
	for i, o := range got {
		if o.Status != wantStatus[i] {
			t.Errorf("entry %d = %s, want %s", i, o.Status, wantStatus[i])
		}
	}
}

func TestRunOnce_PrunesOldEntriesAndRemovedSites(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: up.URL}}, c)

	old := history.History{
		"A":       {models.NewObservation(t0.Add(-7*time.Hour), models.StatusUp)},
		"removed": {models.NewObservation(t0.Add(-7*time.Hour), models.StatusUp)},
	}
	if err := r.Store.Save(old); err != nil {
		t.Fatal(err)
	}
	// Retention is shorter than the gap, so nothing old survives.
	r.Interval = 10 * time.Hour

	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	h, _ := r.Store.Load()
	if _, ok := h["removed"]; ok {
		t.Error("expired series for removed site should be dropped")
	}
	if len(h["A"]) != 1 || !h["A"][0].Time.Equal(t0) {
		t.Errorf("A = %+v", h["A"])
	}
}

func TestRunOnce_CorruptHistoryStartsEmpty(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	c := &clock{t: t0}
	r, events := newRunner(t, []models.SiteConfig{{Name: "A", URL: up.URL}}, c)
	if err := os.WriteFile(r.Store.Path, []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("corrupt history should not fail the cycle: %v", err)
	}
	if !errors.Is(report.StoreWarning, history.ErrCorrupt) {
		t.Errorf("StoreWarning = %v", report.StoreWarning)
	}
	h, _ := r.Store.Load()
	if len(h["A"]) != 1 {
		t.Errorf("A = %+v", h["A"])
	}
	if len(events.entries) == 0 || events.entries[0] != "warn|storage||History unreadable, starting empty" {
		t.Errorf("events = %v", events.entries)
	}
}

func TestRunOnce_LockHeld(t *testing.T) {
	c := &clock{t: t0}
	r, _ := newRunner(t, nil, c)
	r.LockTimeout = 150 * time.Millisecond

	held, err := history.AcquireLock(context.Background(), r.LockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	if _, err := r.RunOnce(context.Background()); !errors.Is(err, history.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if _, err := os.Stat(r.Store.Path); !os.IsNotExist(err) {
		t.Error("history must not be written without the lock")
	}
}

func TestRunOnce_SaveFailureIsFatal(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: up.URL}}, c)
	// A directory in place of the file makes the rename fail.
	if err := os.MkdirAll(filepath.Join(r.Store.Path, "x"), 0o755); err != nil {
		t.Fatal(err)
	}
	committed := false
	r.OnCommit = func(history.History) { committed = true }

	if _, err := r.RunOnce(context.Background()); err == nil {
		t.Error("expected save error")
	}
	if committed {
		t.Error("OnCommit must not run after a failed save")
	}
}

func TestRunOnce_Alerts(t *testing.T) {
	down := statusServer(t, http.StatusInternalServerError)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: down.URL}}, c)

	notifier := &countingNotifier{}
	var alertLog bytes.Buffer
	alertFile := filepath.Join(t.TempDir(), "alert.json")
	r.Alerts = &AlertConfig{
		Machine: &alerts.Machine{Policy: alerts.DefaultPolicy(), Notifier: notifier, Log: alerts.NewAlertLogWriter(&alertLog)},
		Store:   alerts.NewFileStore(alertFile, nil),
	}

	for i := 0; i < 2; i++ {
		c.t = t0.Add(time.Duration(i) * 2 * time.Minute)
		if _, err := r.RunOnce(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if len(notifier.sent) != 1 {
		t.Errorf("sent %d alerts, want 1", len(notifier.sent))
	}
	record := r.Alerts.Store.Load()
	if len(record["A"]) != 1 || record["A"][0].Status != models.StatusDown {
		t.Errorf("record = %+v", record)
	}
	if alertLog.String() != "2025-03-01 12:00:00 UTC | A | down | Sent\n" {
		t.Errorf("alert log = %q", alertLog.String())
	}
}

func withAlerts(t *testing.T, r *Runner) *countingNotifier {
	t.Helper()
	notifier := &countingNotifier{}
	r.Alerts = &AlertConfig{
		Machine: &alerts.Machine{Policy: alerts.DefaultPolicy(), Notifier: notifier},
		Store:   alerts.NewFileStore(filepath.Join(t.TempDir(), "alert.json"), nil),
	}
	return notifier
}

func TestRunOnce_CancelledWhileProbingWritesNothing(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: slow.URL}}, c)
	notifier := withAlerts(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	report, err := r.RunOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if _, err := os.Stat(r.Store.Path); !os.IsNotExist(err) {
		t.Error("history must not be written by a cancelled cycle")
	}
	if _, err := os.Stat(r.Alerts.Store.Path); !os.IsNotExist(err) {
		t.Error("alert record must not be written by a cancelled cycle")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent %d alerts, want 0", len(notifier.sent))
	}

	// The lock was released, so the next cycle runs normally.
	if _, err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("follow-up cycle: %v", err)
	}
}

func TestRunOnce_AlertsUseStoredLatest(t *testing.T) {
	down := statusServer(t, http.StatusInternalServerError)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: down.URL}}, c)
	notifier := withAlerts(t, r)

	// A stored observation newer than the cycle time, as after a clock step back.
	if err := r.Store.Save(history.History{"A": {models.NewObservation(t0.Add(10*time.Minute), models.StatusUp)}}); err != nil {
		t.Fatal(err)
	}

	report, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	h, _ := r.Store.Load()
	latest, ok := history.Latest(h["A"])
	if !ok || latest.Status != models.StatusUp {
		t.Fatalf("stored latest = %+v", latest)
	}
	record := r.Alerts.Store.Load()
	if len(record["A"]) != 1 || record["A"][0].Status != models.StatusUp {
		t.Errorf("record = %+v, want a single up entry", record["A"])
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Status != models.StatusUp {
		t.Errorf("sent = %+v", notifier.sent)
	}
	if len(report.Alerts) != 1 || report.Alerts[0].Status != models.StatusUp {
		t.Errorf("report alerts = %+v", report.Alerts)
	}
}

func TestRunOnce_AlertSaveFailureIsFatal(t *testing.T) {
	down := statusServer(t, http.StatusInternalServerError)
	c := &clock{t: t0}
	r, events := newRunner(t, []models.SiteConfig{{Name: "A", URL: down.URL}}, c)
	withAlerts(t, r)
	// A directory in place of the file makes the rename fail.
	if err := os.MkdirAll(filepath.Join(r.Alerts.Store.Path, "x"), 0o755); err != nil {
		t.Fatal(err)
	}

	report, err := r.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected alert record save error")
	}
	if report == nil || len(report.Alerts) != 1 {
		t.Errorf("report should still carry the alert outcomes: %+v", report)
	}
	if _, statErr := os.Stat(r.Store.Path); statErr != nil {
		t.Errorf("history should be committed before alerts: %v", statErr)
	}
	found := false
	for _, e := range events.entries {
		if e == "error|storage||Alert record save failed" {
			found = true
		}
	}
	if !found {
		t.Errorf("events = %v", events.entries)
	}
}

func TestCycleReport_JSONCarriesErrorText(t *testing.T) {
	ms := 12
	report := CycleReport{
		Time:     t0,
		Duration: 1500 * time.Millisecond,
		Down:     1,
		Results: map[string]checker.Result{
			"A": {Site: "A", URL: "https://a.example.com", Status: models.StatusDown,
				Outcome: checker.Outcome{MS: &ms, Err: errors.New("connection refused")}},
		},
		Alerts:       []alerts.Outcome{{Site: "A", Status: models.StatusDown, Decision: alerts.Send, Err: errors.New("smtp: 554")}},
		StoreWarning: history.ErrCorrupt,
	}

	data, err := json.Marshal(&report)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		DurationMS int64 `json:"duration_ms"`
		Results    map[string]struct {
			Error     string `json:"error"`
			LatencyMS int    `json:"latency_ms"`
		} `json:"results"`
		Alerts []struct {
			Decision string `json:"decision"`
			Error    string `json:"error"`
		} `json:"alerts"`
		StoreWarning string `json:"store_warning"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.DurationMS != 1500 {
		t.Errorf("duration_ms = %d", got.DurationMS)
	}
	if got.Results["A"].Error != "connection refused" || got.Results["A"].LatencyMS != 12 {
		t.Errorf("result = %+v", got.Results["A"])
	}
	if len(got.Alerts) != 1 || got.Alerts[0].Error != "smtp: 554" || got.Alerts[0].Decision != "send" {
		t.Errorf("alerts = %+v", got.Alerts)
	}
	if got.StoreWarning != history.ErrCorrupt.Error() {
		t.Errorf("store_warning = %q", got.StoreWarning)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	up := statusServer(t, http.StatusOK)
	c := &clock{t: t0}
	r, _ := newRunner(t, []models.SiteConfig{{Name: "A", URL: up.URL}}, c)
	r.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(r.Store.Path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first cycle did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
