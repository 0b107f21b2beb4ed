package callsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leadsync-platform/internal/config"
)

type fixture struct {
	tokenCalls int32
	pageCalls  int32

	// pages[i] is served for page i+1.
	pages []listResponse

	// failCalls returns this status for the calls endpoint when > 0.
	failCalls int

	srv *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-1", "expires_in": 900})
	})
	mux.HandleFunc("/telecom/v2/tenant/t1/calls", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.pageCalls, 1)
		if f.failCalls > 0 {
			w.WriteHeader(f.failCalls)
			fmt.Fprint(w, `{"error":"upstream exploded"}`)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("X-App-Key"); got != "appkey" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		idx := int(n) - 1
		if idx >= len(f.pages) {
			_ = json.NewEncoder(w).Encode(listResponse{})
			return
		}
		_ = json.NewEncoder(w).Encode(f.pages[idx])
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) client(pageSize, maxPages int) *Client {
	cfg := config.CallSourceConfig{
		BaseURL:      f.srv.URL,
		AuthURL:      f.srv.URL + "/connect/token",
		ClientID:     "cid",
		ClientSecret: "cs",
		TenantID:     "t1",
		AppKey:       "appkey",
	}
	return New(cfg, config.SyncConfig{PageSize: pageSize, MaxPages: maxPages}, f.srv.Client())
}

func rawCall(id string) RawCall {
	return RawCall{ID: FlexString(id), Direction: "inbound", ReceivedOn: "2025-06-01T10:00:00Z"}
}

func TestFetchCalls_PaginatesUntilExhausted(t *testing.T) {
	f := newFixture(t)
	f.pages = []listResponse{
		{Data: []RawCall{rawCall("1"), rawCall("2")}, HasMore: true},
		{Data: []RawCall{rawCall("3")}, HasMore: false},
	}
	c := f.client(2, 10)

	got, err := c.FetchCalls(context.Background(), time.Now().Add(-time.Hour), time.Now(), 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if atomic.LoadInt32(&f.pageCalls) != 2 {
		t.Fatalf("expected 2 page fetches, got %d", f.pageCalls)
	}
	// Token is cached: one exchange should cover both pages.
	if atomic.LoadInt32(&f.tokenCalls) != 1 {
		t.Fatalf("expected 1 token exchange, got %d", f.tokenCalls)
	}
}

func TestFetchCalls_RecordCeilingStopsEarly(t *testing.T) {
	f := newFixture(t)
	f.pages = []listResponse{
		{Data: []RawCall{rawCall("1"), rawCall("2")}, HasMore: true},
		{Data: []RawCall{rawCall("3"), rawCall("4")}, HasMore: true},
	}
	c := f.client(2, 10)

	got, err := c.FetchCalls(context.Background(), time.Now().Add(-time.Hour), time.Now(), 3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected ceiling of 3 records, got %d", len(got))
	}
	if atomic.LoadInt32(&f.pageCalls) != 2 {
		t.Fatalf("expected fetch to stop after 2 pages, got %d", f.pageCalls)
	}
}

func TestFetchCalls_PageCeilingStops(t *testing.T) {
	f := newFixture(t)
	f.pages = []listResponse{
		{Data: []RawCall{rawCall("1")}, HasMore: true},
		{Data: []RawCall{rawCall("2")}, HasMore: true},
		{Data: []RawCall{rawCall("3")}, HasMore: true},
	}
	c := f.client(1, 2)

	got, err := c.FetchCalls(context.Background(), time.Now().Add(-time.Hour), time.Now(), 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records at page ceiling, got %d", len(got))
	}
}

func TestFetchCalls_NonSuccessSurfacesStatusAndBody(t *testing.T) {
	f := newFixture(t)
	f.failCalls = http.StatusBadGateway
	c := f.client(10, 10)

	_, err := c.FetchCalls(context.Background(), time.Now().Add(-time.Hour), time.Now(), 0)
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Body == "" {
		t.Fatalf("expected truncated body in error")
	}
}

func TestTokenHolder_RefreshesNearExpiry(t *testing.T) {
	f := newFixture(t)
	f.pages = []listResponse{{Data: []RawCall{rawCall("1")}}}
	c := f.client(10, 10)

	now := time.Unix(1700000000, 0)
	if _, err := c.token.refreshIfNeeded(context.Background(), c, now); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// Well before expiry: cached.
	if _, err := c.token.refreshIfNeeded(context.Background(), c, now.Add(5*time.Minute)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if atomic.LoadInt32(&f.tokenCalls) != 1 {
		t.Fatalf("expected cached token, got %d exchanges", f.tokenCalls)
	}
	// Inside the 60s refresh margin of the 900s TTL: re-exchange.
	if _, err := c.token.refreshIfNeeded(context.Background(), c, now.Add(850*time.Second)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if atomic.LoadInt32(&f.tokenCalls) != 2 {
		t.Fatalf("expected refresh near expiry, got %d exchanges", f.tokenCalls)
	}
}

func TestFlexString_DecodesStringsAndNumbers(t *testing.T) {
	var rc RawCall
	payload := `{"id": 12345, "duration": "PT5M30S", "customerId": "c-9", "jobId": null}`
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rc.ID.String() != "12345" {
		t.Fatalf("expected numeric id as string, got %q", rc.ID)
	}
	if rc.Duration.String() != "PT5M30S" {
		t.Fatalf("unexpected duration %q", rc.Duration)
	}
	if rc.CustomerID.String() != "c-9" {
		t.Fatalf("unexpected customer id %q", rc.CustomerID)
	}
	if rc.JobID.String() != "" {
		t.Fatalf("expected null to decode to empty, got %q", rc.JobID)
	}
}

func TestFlexString_LargeIntegerIDsKeepPrecision(t *testing.T) {
	// Above 2^53: a float64 round-trip would mangle the last digits.
	var rc RawCall
	payload := `{"id": 9007199254740993, "customerId": 45.0}`
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rc.ID.String() != "9007199254740993" {
		t.Fatalf("expected exact large id, got %q", rc.ID)
	}
	if rc.CustomerID.String() != "45" {
		t.Fatalf("expected normalized float literal, got %q", rc.CustomerID)
	}
}
