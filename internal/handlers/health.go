package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports 503 while the database ping fails.
func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /health"
		if err := ping(c.Request.Context()); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}
		respondOK(c, http.StatusOK, "ok", nil)
	}
}
