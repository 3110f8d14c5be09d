package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	ContextClaims = "claims"
	ContextUserID = "userId"
	ContextRole   = "role"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
	errTokenInvalid = errors.New("invalid token")
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   true,
		"message": message,
	})
}

// verifyToken parses an HS256 bearer token from the Authorization header.
func verifyToken(header, secret string) (jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, errMissingToken
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errTokenFormat
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func roleFromClaims(claims jwt.MapClaims) string {
	role, _ := claims["role"].(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleUser
	}
	return role
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if strings.EqualFold(role, r) {
			return true
		}
	}
	return false
}

// AuthGuard verifies the bearer token and, when roles are given, requires
// the token's role to be one of them.
func AuthGuard(secret string, logger zerolog.Logger, allowedRoles ...string) gin.HandlerFunc {
	log := logger.With().Str("component", "auth").Logger()
	return func(c *gin.Context) {
		claims, err := verifyToken(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("token rejected")
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}

		role := roleFromClaims(claims)
		if len(allowedRoles) > 0 && !hasRole(role, allowedRoles) {
			log.Warn().Str("role", role).Str("path", c.FullPath()).Msg("role not allowed")
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextRole, role)
		c.Next()
	}
}

func AdminAuth(secret string, logger zerolog.Logger) gin.HandlerFunc {
	return AuthGuard(secret, logger, RoleAdmin)
}

// RequireRole runs after UserAuth and checks the role it stored.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !hasRole(role, allowedRoles) {
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}
