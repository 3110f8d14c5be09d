package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/config"
	"storefront/internal/middleware"
)

const defaultRequestTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Error().Str("route", route).Interface("panic", r).Msg("panic recovered")
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope{Error: true, Message: "internal server error"})
	}
}

// requestContext bounds the store calls made on behalf of one request.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	timeout := config.AppEnv.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}

func requireUser(c *gin.Context, route string) (primitive.ObjectID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return userID, true
}

func parseObjectID(c *gin.Context, route, value, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(value))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
