package callsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leadsync-platform/internal/config"
	"leadsync-platform/pkg/logger"
)

// maxErrorBody bounds how much of an upstream error body is carried in errors.
const maxErrorBody = 512

// APIError is a non-success upstream response. It aborts the fetch for the
// current window and surfaces the status code plus a truncated body.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("callsource: %s returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client fetches call records from the upstream telephony/CRM platform.
//
// Construct one per process (or per invocation) via New; it carries no
// package-level state. The token holder lives on the instance so token
// caching survives across windows without hidden globals.
type Client struct {
	cfg        config.CallSourceConfig
	httpClient *http.Client
	token      tokenHolder

	pageSize int
	maxPages int

	now func() time.Time
}

// New builds a Client. httpClient may be nil, in which case a client with a
// conservative timeout is used.
func New(cfg config.CallSourceConfig, sync config.SyncConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	pageSize := sync.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	maxPages := sync.MaxPages
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		pageSize:   pageSize,
		maxPages:   maxPages,
		now:        time.Now,
	}
}

// FetchCalls returns all call records received in [start, endExclusive),
// paginating until the upstream reports no more pages, the page ceiling is
// reached, or maxRecords have accumulated. Hitting a ceiling is logged as a
// warning (the window is too wide for one invocation) and the records
// fetched so far are returned without error.
func (c *Client) FetchCalls(ctx context.Context, start, endExclusive time.Time, maxRecords int) ([]RawCall, error) {
	log := logger.From(ctx)

	token, err := c.token.refreshIfNeeded(ctx, c, c.now())
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/telecom/v2/tenant/%s/calls", c.cfg.BaseURL, c.cfg.TenantID)

	var out []RawCall
	for page := 1; page <= c.maxPages; page++ {
		// Re-check the token each page: long windows can outlive one token.
		token, err = c.token.refreshIfNeeded(ctx, c, c.now())
		if err != nil {
			return nil, err
		}

		q := url.Values{}
		q.Set("createdOnOrAfter", start.UTC().Format(time.RFC3339))
		q.Set("createdBefore", endExclusive.UTC().Format(time.RFC3339))
		q.Set("pageSize", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("callsource: build calls request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-App-Key", c.cfg.AppKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("callsource: fetch calls page %d: %w", page, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			resp.Body.Close()
			return nil, &APIError{Op: "calls", StatusCode: resp.StatusCode, Body: string(body)}
		}

		var lr listResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&lr)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("callsource: decode calls page %d: %w", page, decodeErr)
		}

		out = append(out, lr.Data...)

		if maxRecords > 0 && len(out) >= maxRecords {
			log.Warn("call fetch hit record ceiling; narrow the window",
				"records", len(out), "max_records", maxRecords,
				"window_start", start, "window_end", endExclusive)
			return out[:maxRecords], nil
		}
		if !lr.HasMore {
			return out, nil
		}
		if page == c.maxPages {
			log.Warn("call fetch hit page ceiling; narrow the window",
				"pages", page, "records", len(out),
				"window_start", start, "window_end", endExclusive)
		}
	}
	return out, nil
}
