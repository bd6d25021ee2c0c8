package handler

import (
	"context"
	"net/http"
	"time"

	"refrigas/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports database and Redis connectivity plus the SMTP breaker state.
// An open breaker degrades notifications only, so it does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, smtp *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		estado := gin.H{"db": "connected", "redis": "connected"}
		ok := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			estado["db"] = "error"
			ok = false
		}
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			estado["redis"] = "error"
			ok = false
		}
		if smtp != nil {
			estado["smtp"] = smtp.State().String()
		}

		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		estado["ok"] = ok
		c.JSON(status, estado)
	}
}
