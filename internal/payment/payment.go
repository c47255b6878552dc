// Package payment settles orders by payment method.
package payment

import (
	"context"
	"errors"
	"fmt"

	"orderup/internal/domain"
)

// Payment statuses recorded on orders.
const (
	StatusPushSent    = "stk_push_sent"
	StatusPayAtPickup = "pay_at_pickup"
)

// ErrUnsupportedMethod is returned for a method with no configured processor.
var ErrUnsupportedMethod = errors.New("payment method not available")

// Charge is one payment request for an order.
type Charge struct {
	OrderNumber string
	Reference   string
	Method      domain.PaymentMethod
	Phone       string
	Amount      domain.Money
}

// Result is a processor's acceptance of a charge.
type Result struct {
	Status    string
	Reference string
	Message   string
}

// DeclinedError is a charge the provider refused.
type DeclinedError struct {
	Code        string
	Description string
}

func (e *DeclinedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("payment declined (code %s)", e.Code)
	}
	return e.Description
}

// Processor settles a charge.
type Processor interface {
	Charge(ctx context.Context, c Charge) (*Result, error)
}

// Router sends each charge to the processor registered for its method.
type Router struct {
	processors map[domain.PaymentMethod]Processor
}

func NewRouter() *Router {
	return &Router{processors: make(map[domain.PaymentMethod]Processor)}
}

// Handle registers p for method, replacing any previous processor.
func (r *Router) Handle(method domain.PaymentMethod, p Processor) *Router {
	r.processors[method] = p
	return r
}

func (r *Router) Charge(ctx context.Context, c Charge) (*Result, error) {
	p, ok := r.processors[c.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, c.Method)
	}
	return p.Charge(ctx, c)
}

// Pickup accepts every charge; the customer pays at the counter.
type Pickup struct{}

func (Pickup) Charge(_ context.Context, c Charge) (*Result, error) {
	return &Result{
		Status:  StatusPayAtPickup,
		Message: fmt.Sprintf("Pay %s when you collect your order", c.Amount.Format(domain.DefaultCurrency)),
	}, nil
}
