package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrEmptyCart is returned when checkout is attempted without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSubmissionInProgress is returned to a second submit while one is in flight.
	ErrSubmissionInProgress = errors.New("checkout submission already in progress")
	// ErrFlowCompleted is returned when a succeeded flow is submitted again.
	ErrFlowCompleted = errors.New("checkout already completed")
)

// ValidationErrors maps a form field to its message. All failing fields are
// reported together.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// GatewayTimeoutError means the gateway gave no answer within the bound.
type GatewayTimeoutError struct {
	Timeout time.Duration
}

func (e *GatewayTimeoutError) Error() string {
	return fmt.Sprintf("payment gateway did not respond within %s", e.Timeout)
}

// UserMessage is the text shown to the customer.
func (e *GatewayTimeoutError) UserMessage() string {
	return "The payment service is not responding. Check your connection and try again."
}

// GatewayError is a non-success answer from the gateway. Message is safe to
// show to the customer. Pending marks an attempt whose outcome is still
// unknown; the flow then keeps its reference for the retry.
type GatewayError struct {
	Message string
	Pending bool
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil && e.Message == "" {
		return "gateway: " + e.Err.Error()
	}
	if e.Err != nil {
		return "gateway: " + e.Message + ": " + e.Err.Error()
	}
	return "gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error { return e.Err }

// UserMessage is the text shown to the customer.
func (e *GatewayError) UserMessage() string {
	if e.Message == "" {
		return "We could not place your order. Please try again."
	}
	return e.Message
}
