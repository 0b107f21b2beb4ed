package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"leadsync-platform/internal/auth"
	"leadsync-platform/internal/config"
	"leadsync-platform/internal/reporting"
	"leadsync-platform/internal/syncer"

	"github.com/gin-gonic/gin"
)

// SyncRunner is the slice of the sync service the HTTP surface needs.
type SyncRunner interface {
	RunLookback(ctx context.Context, days int) (syncer.Summary, error)
	Backfill(ctx context.Context, year int, months []time.Month) (syncer.BackfillResult, error)
}

// StatusProvider reports the current state of the call store.
type StatusProvider interface {
	Status(ctx context.Context) (reporting.SyncStatus, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth   *auth.Manager
	Sync   SyncRunner
	Status StatusProvider
	Cfg    config.SyncConfig
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues an access token.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	tok, err := h.Auth.Issue(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok})
}

// --- Sync triggers ---

type triggerSyncRequest struct {
	Days int `json:"days"`
}

// TriggerSync runs an on-demand lookback sync.
// Missing days falls back to the configured default; the max caps the window.
func (h Handlers) TriggerSync(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}

	var req triggerSyncRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	if req.Days < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "days must be positive"})
		return
	}
	days := req.Days
	if days == 0 {
		days = h.Cfg.DefaultLookbackDays
	}
	if h.Cfg.MaxLookbackDays > 0 && days > h.Cfg.MaxLookbackDays {
		days = h.Cfg.MaxLookbackDays
	}

	sum, err := h.Sync.RunLookback(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

type triggerBackfillRequest struct {
	Year   int   `json:"year"`
	Months []int `json:"months,omitempty"`
	// StartMonth resumes a year backfill partway through. Only honored
	// when months is empty.
	StartMonth int `json:"start_month,omitempty"`
}

// TriggerBackfill replays whole months of call history.
// An empty months list means every month of the year up to the current one.
func (h Handlers) TriggerBackfill(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}

	var req triggerBackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	now := time.Now().UTC()
	if req.Year < 2000 || req.Year > now.Year() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "year out of range"})
		return
	}

	months, err := backfillMonths(req, now)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.Sync.Backfill(c.Request.Context(), req.Year, months)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func backfillMonths(req triggerBackfillRequest, now time.Time) ([]time.Month, error) {
	if len(req.Months) == 0 {
		first := time.January
		if req.StartMonth != 0 {
			if req.StartMonth < 1 || req.StartMonth > 12 {
				return nil, errors.New("start_month must be 1..12")
			}
			first = time.Month(req.StartMonth)
		}
		last := time.December
		if req.Year == now.Year() {
			last = now.Month()
		}
		if first > last {
			return nil, errors.New("start_month is after the last available month")
		}
		months := make([]time.Month, 0, int(last-first)+1)
		for m := first; m <= last; m++ {
			months = append(months, m)
		}
		return months, nil
	}

	months := make([]time.Month, 0, len(req.Months))
	for _, m := range req.Months {
		if m < 1 || m > 12 {
			return nil, errors.New("months must be 1..12")
		}
		if req.Year == now.Year() && time.Month(m) > now.Month() {
			return nil, errors.New("months must not be in the future")
		}
		months = append(months, time.Month(m))
	}
	return months, nil
}

// --- Status ---

func (h Handlers) SyncStatus(c *gin.Context) {
	if h.Status == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status not configured"})
		return
	}
	out, err := h.Status.Status(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Cron entrypoint ---

// CronSync is the scheduled-sync entrypoint: default lookback, no body.
// Authentication is the cron-secret middleware, not JWT.
func (h Handlers) CronSync(c *gin.Context) {
	if h.Sync == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sync not configured"})
		return
	}
	sum, err := h.Sync.RunLookback(c.Request.Context(), h.Cfg.DefaultLookbackDays)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "sync already running"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}
