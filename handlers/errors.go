package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/37vikanshu-dot/Mini-Drop/checkout"
	"github.com/37vikanshu-dot/Mini-Drop/coupon"
	"github.com/37vikanshu-dot/Mini-Drop/middleware"
	"github.com/37vikanshu-dot/Mini-Drop/models"
	"github.com/37vikanshu-dot/Mini-Drop/orderflow"
	"github.com/37vikanshu-dot/Mini-Drop/payment"
	"github.com/37vikanshu-dot/Mini-Drop/rider"
)

// statusFor maps a domain error to an HTTP status and the message shown to
// the caller. Unknown errors are 500 with a generic message.
func statusFor(err error) (int, string) {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case coupon.IsRejection(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, checkout.ErrPaymentVerification):
		return http.StatusPaymentRequired, checkout.ErrPaymentVerification.Error()
	case errors.Is(err, checkout.ErrPaymentRequired):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, checkout.ErrPaymentInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, orderflow.ErrNotOwner), errors.Is(err, rider.ErrNotAssigned):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, orderflow.ErrIllegalTransition):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, rider.ErrRiderOffline), errors.Is(err, rider.ErrAlreadyTaken):
		return http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, "The resource was changed by another request"
	case errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable, "Could not save your order, please try again"
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway, "Payment gateway unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code, message := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("trace_id", middleware.GetTraceID(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(code, gin.H{"error": message})
}
