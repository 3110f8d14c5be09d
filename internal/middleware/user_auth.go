package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserAuth validates user JWT tokens and injects the userId and role into
// the context. The user id comes from the "userId" claim, falling back to
// "sub".
func UserAuth(secret string, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth").Logger()
	return func(c *gin.Context) {
		claims, err := verifyToken(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("token rejected")
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, ok := userIDFromClaims(claims)
		if !ok {
			log.Debug().Str("path", c.FullPath()).Msg("userId claim missing or invalid")
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, userID)
		c.Set(ContextRole, roleFromClaims(claims))
		c.Next()
	}
}

func userIDFromClaims(claims jwt.MapClaims) (primitive.ObjectID, bool) {
	raw, _ := claims["userId"].(string)
	if strings.TrimSpace(raw) == "" {
		raw, _ = claims["sub"].(string)
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// UserID returns the id UserAuth stored on the context.
func UserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}
