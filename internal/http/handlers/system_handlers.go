package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/models"
	"go.uber.org/zap"
)

// HealthFunc reports the status of one or more named services. A status of
// "healthy" or "disabled" counts as healthy.
type HealthFunc func(ctx context.Context) map[string]string

// StatsFunc contributes one section of the stats endpoint.
type StatsFunc func(ctx context.Context) (interface{}, error)

type SystemHandler struct {
	checks []HealthFunc
	stats  map[string]StatsFunc
	logger *zap.Logger
}

func NewSystemHandler(checks []HealthFunc, stats map[string]StatsFunc, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{checks: checks, stats: stats, logger: logger}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "Online",
		"message": "Sign recognition service is running",
	})
}

func (h *SystemHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	for _, check := range h.checks {
		for name, status := range check(c.Request.Context()) {
			services[name] = status
		}
	}
	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func (h *SystemHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now(),
	}
	for name, fn := range h.stats {
		section, err := fn(c.Request.Context())
		if err != nil {
			h.logger.Warn("Failed to collect stats", zap.String("section", name), zap.Error(err))
			stats[name] = gin.H{"error": err.Error()}
			continue
		}
		stats[name] = section
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "disabled" {
			return "unhealthy"
		}
	}
	return "healthy"
}
