package callsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// refreshMargin renews the token slightly before expiry so an in-flight
// page fetch never races token expiration.
const refreshMargin = 60 * time.Second

// defaultTokenTTL applies when the token endpoint omits expires_in.
const defaultTokenTTL = 900 * time.Second

// tokenHolder caches a bearer token and its expiry for one client instance.
// It is explicit instance state, not package state: each Client owns one
// holder, so tests and parallel clients never share tokens.
type tokenHolder struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// refreshIfNeeded returns a valid bearer token, exchanging client
// credentials when the cached token is absent or within refreshMargin of
// expiry.
func (h *tokenHolder) refreshIfNeeded(ctx context.Context, c *Client, now time.Time) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.token != "" && now.Before(h.expiresAt.Add(-refreshMargin)) {
		return h.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("callsource: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("callsource: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{Op: "token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("callsource: decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("callsource: token response missing access_token")
	}

	ttl := defaultTokenTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}

	h.token = tr.AccessToken
	h.expiresAt = now.Add(ttl)
	return h.token, nil
}
