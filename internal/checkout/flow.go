// Package checkout validates a customer's order details against their cart
// and submits the order to the gateway exactly once.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"orderup/internal/cart"
	"orderup/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 10 * time.Second

// State is a checkout flow state.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Request is the frozen order handed to the gateway.
type Request struct {
	Reference     string               `json:"reference"`
	SessionKey    string               `json:"-"`
	CustomerID    *string              `json:"customerId,omitempty"`
	Contact       domain.Contact       `json:"contact"`
	Delivery      domain.Delivery      `json:"delivery"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Cart          domain.CartSnapshot  `json:"cart"`
}

// Confirmation is the gateway's answer to a successful submission.
type Confirmation struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	Reference   string             `json:"reference"`
	Message     string             `json:"message,omitempty"`
}

// Gateway places orders. Implementations should honour ctx cancellation; the
// flow stops waiting at its deadline either way.
type Gateway interface {
	SubmitOrder(ctx context.Context, req Request) (*Confirmation, error)
}

// Owner identifies who the flow submits for.
type Owner struct {
	SessionKey string
	CustomerID *string
}

// Options tunes a Flow.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
	Owner   Owner
}

// Status is a point-in-time view of a flow.
type Status struct {
	State        State
	Reference    string
	Confirmation *Confirmation
	Err          error
}

// Flow drives one order from form submission to confirmation. A succeeded
// flow is finished; build a new one for the next order.
type Flow struct {
	mu           sync.Mutex
	cart         *cart.Store
	gateway      Gateway
	timeout      time.Duration
	logger       *zap.Logger
	owner        Owner
	state        State
	lastErr      error
	confirmation *Confirmation
	reference    string
	newRef       func() string
}

// New creates an idle flow over store.
func New(store *cart.Store, gateway Gateway, opts Options) *Flow {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Flow{
		cart:    store,
		gateway: gateway,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		owner:   opts.Owner,
		state:   StateIdle,
		newRef:  func() string { return uuid.NewString() },
	}
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Status returns the state together with the last result.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Status{
		State:        f.state,
		Reference:    f.reference,
		Confirmation: f.confirmation,
		Err:          f.lastErr,
	}
}

// Submit validates form, snapshots the cart and places the order. Only one
// submission runs at a time; a concurrent call gets ErrSubmissionInProgress.
// Cancelling ctx does not abandon a submission that reached the gateway.
func (f *Flow) Submit(ctx context.Context, form Form) (*Confirmation, error) {
	req, err := f.begin(form)
	if err != nil {
		return nil, err
	}

	f.logger.Info("checkout: submitting",
		zap.String("reference", req.Reference),
		zap.String("session", req.SessionKey),
		zap.String("payment_method", string(req.PaymentMethod)),
		zap.Int64("total", int64(req.Cart.Total)),
		zap.Int("lines", len(req.Cart.Lines)),
	)
	conf, err := f.call(ctx, req)
	return f.finish(req, conf, err)
}

func (f *Flow) begin(form Form) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateValidating, StateSubmitting:
		return Request{}, ErrSubmissionInProgress
	case StateSucceeded:
		return Request{}, ErrFlowCompleted
	}
	if f.cart.IsEmpty() {
		return Request{}, ErrEmptyCart
	}

	prev := f.state
	f.state = StateValidating
	normalized, verrs := form.Validate()
	if verrs != nil {
		f.state = StateFailed
		f.lastErr = verrs
		return Request{}, verrs
	}

	snap := f.cart.Snapshot()
	if len(snap.Lines) == 0 {
		f.state = prev
		return Request{}, ErrEmptyCart
	}
	if f.reference == "" {
		f.reference = f.newRef()
	}
	f.state = StateSubmitting
	f.lastErr = nil
	return Request{
		Reference:     f.reference,
		SessionKey:    f.owner.SessionKey,
		CustomerID:    f.owner.CustomerID,
		Contact:       normalized.contact(),
		Delivery:      normalized.delivery(),
		PaymentMethod: normalized.PaymentMethod,
		Cart:          snap,
	}, nil
}

type gatewayResult struct {
	conf *Confirmation
	err  error
}

func (f *Flow) call(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	done := make(chan gatewayResult, 1)
	go func() {
		conf, err := f.gateway.SubmitOrder(ctx, req)
		done <- gatewayResult{conf: conf, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, &GatewayTimeoutError{Timeout: f.timeout}
			}
			var gwErr *GatewayError
			if errors.As(res.err, &gwErr) {
				return nil, gwErr
			}
			return nil, &GatewayError{Err: res.err}
		}
		if res.conf == nil {
			return nil, &GatewayError{Message: "no confirmation received"}
		}
		return res.conf, nil
	case <-ctx.Done():
		return nil, &GatewayTimeoutError{Timeout: f.timeout}
	}
}

func (f *Flow) finish(req Request, conf *Confirmation, err error) (*Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.state = StateFailed
		f.lastErr = err
		var timeout *GatewayTimeoutError
		var gwErr *GatewayError
		switch {
		case errors.As(err, &timeout):
			// A late success is found by reference on the next attempt.
			f.logger.Warn("checkout: gateway timeout", zap.String("reference", req.Reference), zap.Duration("timeout", f.timeout))
		case errors.As(err, &gwErr) && gwErr.Pending:
			f.logger.Warn("checkout: order still pending", zap.String("reference", req.Reference))
		default:
			f.reference = ""
			f.logger.Warn("checkout: gateway failed", zap.String("reference", req.Reference), zap.Error(err))
		}
		return nil, err
	}

	f.state = StateSucceeded
	f.confirmation = conf
	f.lastErr = nil
	f.cart.Clear()
	f.logger.Info("checkout: order placed",
		zap.String("reference", req.Reference),
		zap.String("order_id", conf.OrderID),
		zap.String("order_number", conf.OrderNumber),
	)
	return conf, nil
}
