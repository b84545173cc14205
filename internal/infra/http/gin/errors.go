package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	calendarapp "villaledger/internal/app/handlers/calendar"
	syncapp "villaledger/internal/app/handlers/remotesync"
	"villaledger/internal/app/middleware"
	"villaledger/internal/app/policies"
	"villaledger/internal/domain/pricing"
	"villaledger/internal/domain/reservations"
	"villaledger/internal/domain/shared/daterange"
	"villaledger/internal/domain/shared/money"
	"villaledger/internal/domain/stay"
	"villaledger/internal/domain/units"
	"villaledger/internal/infra/snapshot"
)

var errBadRequestID = errors.New("id must be a positive integer")

func statusFor(err error) int {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, reservations.ErrNotFound),
		errors.Is(err, pricing.ErrRuleNotFound),
		errors.Is(err, snapshot.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict
	case errors.Is(err, pricing.ErrRateNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, policies.ErrRemoteStore):
		return http.StatusBadGateway
	case errors.Is(err, syncapp.ErrRemoteNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, errBadRequestID),
		errors.Is(err, middleware.ErrValidation),
		errors.Is(err, units.ErrUnknownUnit),
		errors.Is(err, daterange.ErrInvalidDay),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, stay.ErrInvalidDateRange),
		errors.Is(err, stay.ErrInvalidCommissionRate),
		errors.Is(err, stay.ErrInvalidPrice),
		errors.Is(err, stay.ErrInvalidDiscount),
		errors.Is(err, stay.ErrUnknownPrecedence),
		errors.Is(err, pricing.ErrInvalidRuleRange),
		errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, reservations.ErrGuestNameRequired),
		errors.Is(err, calendarapp.ErrInvalidMonth):
		return true
	}
	return false
}

// respondError writes {"error": ...}. Only server-side failures are logged
// here; the request logger already records every 4xx.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "path", c.FullPath(), "error", err)
	}
	body := gin.H{"error": err.Error()}
	if errors.Is(err, pricing.ErrRateNotFound) {
		body["hint"] = "enter the nightly price manually"
	}
	c.JSON(status, body)
}
