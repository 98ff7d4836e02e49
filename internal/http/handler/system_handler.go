package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/straye-as/sds-catalog-api/internal/database"
	"github.com/straye-as/sds-catalog-api/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const healthCheckTimeout = 3 * time.Second

// SystemHandler serves health probes and static reference data
type SystemHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// NewSystemHandler creates the handler; redisClient is nil when sessions live in the database
func NewSystemHandler(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{db: db, redis: redisClient, logger: logger}
}

// Languages godoc
// @Summary Supported languages
// @Tags System
// @Produce json
// @Success 200 {array} domain.LanguageDTO
// @Router /languages [get]
func (h *SystemHandler) Languages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, mapper.ToLanguageDTOs())
}

// Health is the liveness probe
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HealthDB reports database reachability with pool statistics
func (h *SystemHandler) HealthDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	stats, err := database.HealthCheckWithStats(ctx, h.db)
	if err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats":   stats,
	})
}

// Ready checks every dependency the API needs to serve requests
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(ctx, h.db); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Error("Redis health check failed", zap.Error(err))
			checks["redis"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["redis"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	respondJSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}
