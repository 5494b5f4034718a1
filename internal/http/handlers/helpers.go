package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/sign-recognition/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.ErrorResponse{Error: message})
}

// parseLimit reads the limit query parameter, falling back to defaultLimit
// and capping at maxLimit.
func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}
