package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"storefront/internal/apperr"
)

// envelope is the shape of every response body.
type envelope struct {
	Success bool        `json:"success"`
	Error   bool        `json:"error"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Debug().Str("route", route).Int("status", status).Msg(message)
	c.AbortWithStatusJSON(status, envelope{Error: true, Message: message})
}

// respondAppError renders a service error. Internal causes are logged and
// replaced by a generic message.
func respondAppError(c *gin.Context, route string, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}

	status := apperr.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("route", route).Msg("request failed")
		_ = c.Error(err)
	}

	body := envelope{Error: true, Message: appErr.Message}
	if appErr.ProductID != "" {
		body.Data = gin.H{"productId": appErr.ProductID, "productName": appErr.ProductName}
	}
	c.AbortWithStatusJSON(status, body)
}

func respondValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			case "min", "gte":
				details = append(details, fmt.Sprintf("%s must be at least %s", field, fieldError.Param()))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, envelope{
			Error:   true,
			Message: strings.Join(details, ", "),
			Data:    gin.H{"details": details},
		})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Error: true, Message: "invalid request body"})
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	if strings.HasSuffix(field, "ID") {
		field = strings.TrimSuffix(field, "ID") + "Id"
	}
	return strings.ToLower(field[:1]) + field[1:]
}
