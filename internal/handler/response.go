package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"haul/internal/auth"
	"haul/internal/repository"
	"haul/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRequestID),
		errors.Is(err, service.ErrInvalidShiftID),
		errors.Is(err, service.ErrEmptyPickupAddress),
		errors.Is(err, service.ErrEmptyDropoffAddress),
		errors.Is(err, service.ErrUnknownVehicle),
		errors.Is(err, service.ErrUnresolvedPickup),
		errors.Is(err, service.ErrUnresolvedDropoff),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrShortPassword),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrDriverNotApproved),
		errors.Is(err, service.ErrNotRequestDriver):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrAlreadyTaken),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrShiftAlreadyActive),
		errors.Is(err, service.ErrNoActiveShift),
		errors.Is(err, service.ErrNotPayable),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrPhoneInUse):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
