package main

import (
	"database/sql"
	"time"

	"leadsync-platform/internal/httpapi"
	"leadsync-platform/internal/rbac"
	"leadsync-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, cronSecret string, db *sql.DB, rdb *redis.Client) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		// Redis is advisory: report it, don't fail on it.
		cache := "ok"
		if rdb == nil {
			cache = "disabled"
		} else if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			cache = "unavailable"
		}
		c.JSON(200, gin.H{"status": "ok", "cache": cache})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Scheduler callback: shared-secret auth, not JWT. The scheduler holds
	// one secret, never a user identity.
	r.POST("/cron/sync", httpapi.RequireCronSecret(cronSecret), h.CronSync)

	v1 := r.Group("/v1")

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	v1.POST("/auth/login", h.Login)

	// protected API group
	protected := v1.Group("")
	protected.Use(authMW)
	{
		sync := protected.Group("/sync")
		{
			sync.POST("/trigger",
				rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator),
				h.TriggerSync)
			sync.POST("/backfill",
				rbac.RequireAnyRole(rbac.RoleAdmin),
				h.TriggerBackfill)
			sync.GET("/status",
				rbac.RequireAnyRole(rbac.RoleAdmin, rbac.RoleOperator, rbac.RoleViewer),
				h.SyncStatus)
		}
	}
}
