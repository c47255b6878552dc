package httpserver

import (
	"errors"
	"net/http"

	"orderup/internal/cart"
	"orderup/internal/checkout"
	"orderup/internal/domain"
	customersvc "orderup/internal/service/customer"
	ordersvc "orderup/internal/service/order"
	"orderup/internal/session"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error to a status code and a JSON body.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verrs checkout.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Please correct the highlighted fields.", "errors": verrs})
		return
	}
	var timeout *checkout.GatewayTimeoutError
	if errors.As(err, &timeout) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"message": timeout.UserMessage()})
		return
	}
	var gwErr *checkout.GatewayError
	if errors.As(err, &gwErr) {
		c.JSON(http.StatusBadGateway, gin.H{"message": gwErr.UserMessage(), "pending": gwErr.Pending})
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, cart.ErrCurrencyMismatch):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, checkout.ErrEmptyCart):
		status, msg = http.StatusConflict, "Your cart is empty."
	case errors.Is(err, checkout.ErrFlowCompleted):
		status, msg = http.StatusConflict, "This order has already been placed."
	case errors.Is(err, session.ErrSessionMerged):
		status, msg = http.StatusConflict, "Your cart has moved to your account. Please sign in again."
	case errors.Is(err, customersvc.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, customersvc.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, msg = http.StatusConflict, "An account with this email already exists"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, ordersvc.ErrForbidden):
		status, msg = http.StatusNotFound, "not found"
	}
	c.JSON(status, gin.H{"message": msg})
}

const genericFailure = "Something went wrong. Please try again."

// userMessage is the customer-facing text for a checkout failure. Errors
// without a known meaning never leak their text.
func userMessage(err error) string {
	var timeout *checkout.GatewayTimeoutError
	if errors.As(err, &timeout) {
		return timeout.UserMessage()
	}
	var gwErr *checkout.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.UserMessage()
	}
	var verrs checkout.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return "Please correct the highlighted fields."
	case errors.Is(err, checkout.ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, checkout.ErrFlowCompleted):
		return "This order has already been placed."
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		return "Your order is already being placed."
	}
	return genericFailure
}
