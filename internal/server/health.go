package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

type healthHandler struct {
	db        *gorm.DB
	rdb       *redis.Client
	startTime time.Time
}

func newHealthHandler(db *gorm.DB, rdb *redis.Client) *healthHandler {
	return &healthHandler{db: db, rdb: rdb, startTime: time.Now()}
}

type check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health is the liveness check.
func (h *healthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready reports DOWN when the database, or Redis if configured, does not answer.
func (h *healthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := map[string]check{"database": h.checkDatabase(ctx)}
	if h.rdb != nil {
		checks["redis"] = h.checkRedis(ctx)
	}

	status, code := "UP", http.StatusOK
	for _, ch := range checks {
		if ch.Status != "UP" {
			status, code = "DOWN", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{"status": status, "checks": checks})
}

func (h *healthHandler) checkDatabase(ctx context.Context) check {
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Status: "DOWN", Message: "Database connection is not initialized"}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Status: "DOWN", Message: "Cannot connect to database"}
	}
	return check{Status: "UP"}
}

func (h *healthHandler) checkRedis(ctx context.Context) check {
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		return check{Status: "DOWN", Message: "Cannot connect to Redis"}
	}
	return check{Status: "UP"}
}
