package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadsync-platform/internal/config"
	"leadsync-platform/internal/reporting"
	"leadsync-platform/internal/syncer"

	"github.com/gin-gonic/gin"
)

type recordingRunner struct {
	lastDays   int
	lastYear   int
	lastMonths []time.Month
	runErr     error
}

func (r *recordingRunner) RunLookback(ctx context.Context, days int) (syncer.Summary, error) {
	r.lastDays = days
	if r.runErr != nil {
		return syncer.Summary{}, r.runErr
	}
	return syncer.Summary{CallsFromAPI: 3, CallsSynced: 3}, nil
}

func (r *recordingRunner) Backfill(ctx context.Context, year int, months []time.Month) (syncer.BackfillResult, error) {
	r.lastYear = year
	r.lastMonths = months
	if r.runErr != nil {
		return syncer.BackfillResult{}, r.runErr
	}
	return syncer.BackfillResult{}, nil
}

type fixedStatus struct{ out reporting.SyncStatus }

func (f fixedStatus) Status(ctx context.Context) (reporting.SyncStatus, error) { return f.out, nil }

func newRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sync", h.TriggerSync)
	r.POST("/backfill", h.TriggerBackfill)
	r.GET("/status", h.SyncStatus)
	r.POST("/cron", RequireCronSecret("topsecret"), h.CronSync)
	return r
}

func doJSON(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testCfg() config.SyncConfig {
	return config.SyncConfig{DefaultLookbackDays: 7, MaxLookbackDays: 90}
}

func TestTriggerSync_DefaultsAndCaps(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	w := doJSON(r, http.MethodPost, "/sync", "", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if runner.lastDays != 7 {
		t.Fatalf("expected default 7 days, got %d", runner.lastDays)
	}

	w = doJSON(r, http.MethodPost, "/sync", `{"days": 365}`, nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if runner.lastDays != 90 {
		t.Fatalf("expected cap at 90 days, got %d", runner.lastDays)
	}

	w = doJSON(r, http.MethodPost, "/sync", `{"days": -1}`, nil)
	if w.Code != 400 {
		t.Fatalf("expected 400 for negative days, got %d", w.Code)
	}
}

func TestTriggerSync_ConflictWhenRunning(t *testing.T) {
	runner := &recordingRunner{runErr: syncer.ErrSyncInProgress}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	w := doJSON(r, http.MethodPost, "/sync", "", nil)
	if w.Code != 409 {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestTriggerBackfill_ExplicitMonths(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	w := doJSON(r, http.MethodPost, "/backfill", `{"year": 2024, "months": [1, 2, 6]}`, nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if runner.lastYear != 2024 {
		t.Fatalf("expected year 2024, got %d", runner.lastYear)
	}
	want := []time.Month{time.January, time.February, time.June}
	if len(runner.lastMonths) != len(want) {
		t.Fatalf("expected %v, got %v", want, runner.lastMonths)
	}
	for i := range want {
		if runner.lastMonths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, runner.lastMonths)
		}
	}
}

func TestTriggerBackfill_EmptyMonthsFillsPastYear(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	w := doJSON(r, http.MethodPost, "/backfill", `{"year": 2024}`, nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(runner.lastMonths) != 12 || runner.lastMonths[0] != time.January || runner.lastMonths[11] != time.December {
		t.Fatalf("expected all 12 months, got %v", runner.lastMonths)
	}
}

func TestTriggerBackfill_StartMonthResumes(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	w := doJSON(r, http.MethodPost, "/backfill", `{"year": 2024, "start_month": 10}`, nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	want := []time.Month{time.October, time.November, time.December}
	if len(runner.lastMonths) != len(want) {
		t.Fatalf("expected %v, got %v", want, runner.lastMonths)
	}
	for i := range want {
		if runner.lastMonths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, runner.lastMonths)
		}
	}

	if w := doJSON(r, http.MethodPost, "/backfill", `{"year": 2024, "start_month": 13}`, nil); w.Code != 400 {
		t.Fatalf("expected 400 for bad start_month, got %d", w.Code)
	}
}

func TestTriggerBackfill_Validation(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	for _, body := range []string{
		`{"year": 1999}`,
		`{"year": 2024, "months": [0]}`,
		`{"year": 2024, "months": [13]}`,
		`not json`,
	} {
		if w := doJSON(r, http.MethodPost, "/backfill", body, nil); w.Code != 400 {
			t.Fatalf("expected 400 for %q, got %d", body, w.Code)
		}
	}
}

func TestSyncStatus(t *testing.T) {
	ts := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	r := newRouter(Handlers{Status: fixedStatus{out: reporting.SyncStatus{TotalCalls: 42, LastSyncedAt: &ts}}})

	w := doJSON(r, http.MethodGet, "/status", "", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got reporting.SyncStatus
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalCalls != 42 || got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(ts) {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestCronSync_SecretGate(t *testing.T) {
	runner := &recordingRunner{}
	r := newRouter(Handlers{Sync: runner, Cfg: testCfg()})

	if w := doJSON(r, http.MethodPost, "/cron", "", nil); w.Code != 401 {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodPost, "/cron", "", map[string]string{"Authorization": "Bearer wrong"}); w.Code != 401 {
		t.Fatalf("expected 401 with wrong secret, got %d", w.Code)
	}
	w := doJSON(r, http.MethodPost, "/cron", "", map[string]string{"Authorization": "Bearer topsecret"})
	if w.Code != 200 {
		t.Fatalf("expected 200 with secret, got %d", w.Code)
	}
	if runner.lastDays != 7 {
		t.Fatalf("cron must use default lookback, got %d", runner.lastDays)
	}
}
