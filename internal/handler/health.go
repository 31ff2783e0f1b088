package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
)

// Version is reported by the readiness check.
const Version = "1.0.0"

// Dependency states reported by the readiness check.
const (
	statusUp       = "up"
	statusDown     = "down"
	statusDisabled = "disabled"
)

type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	table   *classifier.Table
	startAt time.Time
}

// NewHealthHandler returns the health handlers. rdb may be nil when caching
// is disabled.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, table *classifier.Table) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		rdb:     rdb,
		table:   table,
		startAt: time.Now(),
	}
}

// dependencyCheck is one entry of the readiness report.
type dependencyCheck struct {
	Status     string `json:"status"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
	Error      string `json:"error,omitempty"`
	Categories int    `json:"categories,omitempty"`
}

// Live handles GET /health/live (liveness check).
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready. The database is required; without the
// cache the service is degraded but still serves, fetching metadata on
// every request.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	db := ping(ctx, h.pool.Ping)
	cache := dependencyCheck{Status: statusDisabled}
	if h.rdb != nil {
		cache = ping(ctx, func(ctx context.Context) error { return h.rdb.Ping(ctx).Err() })
	}

	overall, code := "healthy", fiber.StatusOK
	switch {
	case db.Status != statusUp:
		overall, code = "unhealthy", fiber.StatusServiceUnavailable
	case cache.Status == statusDown:
		overall = "degraded"
	}

	return c.Status(code).JSON(fiber.Map{
		"status": overall,
		"checks": map[string]dependencyCheck{
			"database":   db,
			"redis":      cache,
			"classifier": {Status: statusUp, Categories: h.table.Len()},
		},
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	})
}

// ping times fn and reports it as a dependency check. Error details stay
// in the server; clients only see that the connection failed.
func ping(ctx context.Context, fn func(context.Context) error) dependencyCheck {
	start := time.Now()
	err := fn(ctx)
	check := dependencyCheck{Status: statusUp, LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		check.Status = statusDown
		check.Error = "connection failed"
	}
	return check
}
