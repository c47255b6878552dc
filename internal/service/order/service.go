// Package order places checked-out carts: it records the order, settles it
// through the payment router and announces it.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"orderup/internal/checkout"
	"orderup/internal/domain"
	"orderup/internal/events"
	"orderup/internal/payment"
	orderrepo "orderup/internal/repository/order"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrForbidden is returned when an order is read by someone other than its owner.
var ErrForbidden = errors.New("order belongs to another session")

type payments interface {
	Charge(ctx context.Context, c payment.Charge) (*payment.Result, error)
}

type Service struct {
	repo      orderrepo.Repository
	payments  payments
	publisher events.Publisher
	logger    *zap.Logger
	newNumber func() string

	confirmBackoff time.Duration
}

func New(repo orderrepo.Repository, p payments, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:           repo,
		payments:       p,
		publisher:      publisher,
		logger:         logger,
		newNumber:      newOrderNumber,
		confirmBackoff: 200 * time.Millisecond,
	}
}

var _ checkout.Gateway = (*Service)(nil)

// SubmitOrder places req. A reference seen before resolves to the stored
// order: a confirmed one is returned again, a pending one is reported as still
// in progress and a failed one is reopened with the contents of req and
// charged again.
func (s *Service) SubmitOrder(ctx context.Context, req checkout.Request) (*checkout.Confirmation, error) {
	draft := domain.Order{
		Number:        s.newNumber(),
		Reference:     req.Reference,
		CustomerID:    req.CustomerID,
		SessionKey:    req.SessionKey,
		PaymentMethod: req.PaymentMethod,
		Contact:       req.Contact,
		Delivery:      req.Delivery,
		Lines:         req.Cart.Lines,
		Subtotal:      req.Cart.Subtotal,
		Fees:          req.Cart.Fees,
		Total:         req.Cart.Total,
		Currency:      req.Cart.Currency,
	}
	o, created, err := s.repo.CreatePending(ctx, draft)
	if err != nil {
		return nil, err
	}
	if !created {
		switch o.Status {
		case domain.OrderConfirmed:
			s.logger.Info("order: resolved by reference", zap.String("reference", o.Reference), zap.String("order_id", o.ID))
			return confirmation(o, "Your order has already been placed."), nil
		case domain.OrderPending:
			return nil, errStillProcessing(nil)
		case domain.OrderFailed:
			o, err = s.repo.Reopen(ctx, o.ID, draft)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, errStillProcessing(nil)
			}
			if err != nil {
				return nil, err
			}
			s.logger.Info("order: reopened", zap.String("reference", o.Reference), zap.String("order_id", o.ID))
		}
	}

	res, err := s.payments.Charge(ctx, payment.Charge{
		OrderNumber: o.Number,
		Reference:   o.Reference,
		Method:      o.PaymentMethod,
		Phone:       o.Contact.Phone,
		Amount:      o.Total,
	})
	// The outcome is recorded even when the caller stopped waiting.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err != nil {
		if _, markErr := s.repo.MarkFailed(persistCtx, o.ID, err.Error()); markErr != nil {
			s.logger.Error("order: mark failed", zap.String("order_id", o.ID), zap.Error(markErr))
		}
		return nil, chargeError(err)
	}

	confirmed, err := s.markConfirmed(persistCtx, o.ID, res)
	if err != nil {
		// Charged: a pending answer keeps the flow on this reference.
		s.logger.Error("order: charged but not confirmed",
			zap.String("order_id", o.ID),
			zap.String("payment_reference", res.Reference),
			zap.Error(err),
		)
		return nil, errStillProcessing(err)
	}
	if err := s.publisher.PublishOrderPlaced(persistCtx, events.NewOrderPlaced(*confirmed)); err != nil {
		s.logger.Warn("order: publish order placed", zap.String("order_id", confirmed.ID), zap.Error(err))
	}
	s.logger.Info("order: placed",
		zap.String("order_id", confirmed.ID),
		zap.String("number", confirmed.Number),
		zap.String("payment_method", string(confirmed.PaymentMethod)),
		zap.String("payment_status", confirmed.PaymentStatus),
	)
	return confirmation(confirmed, res.Message), nil
}

const confirmAttempts = 3

func (s *Service) markConfirmed(ctx context.Context, id string, res *payment.Result) (*domain.Order, error) {
	var err error
	for attempt := 1; attempt <= confirmAttempts; attempt++ {
		var o *domain.Order
		o, err = s.repo.MarkConfirmed(ctx, id, res.Status, res.Reference)
		if err == nil {
			return o, nil
		}
		s.logger.Warn("order: mark confirmed", zap.String("order_id", id), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == confirmAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(s.confirmBackoff * time.Duration(attempt)):
		}
	}
	return nil, err
}

func errStillProcessing(err error) error {
	return &checkout.GatewayError{
		Message: "Your previous attempt is still being processed. Please try again in a moment.",
		Pending: true,
		Err:     err,
	}
}

// Get returns an order visible to the given session or customer.
func (s *Service) Get(ctx context.Context, id, sessionKey string, customerID *string) (*domain.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SessionKey == sessionKey {
		return o, nil
	}
	if customerID != nil && o.CustomerID != nil && *o.CustomerID == *customerID {
		return o, nil
	}
	return nil, ErrForbidden
}

// ListByCustomer returns a customer's most recent orders first.
func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	orders, err := s.repo.ListByCustomer(ctx, customerID, 50)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func confirmation(o *domain.Order, msg string) *checkout.Confirmation {
	return &checkout.Confirmation{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		Status:      o.Status,
		Reference:   o.Reference,
		Message:     msg,
	}
}

func chargeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var declined *payment.DeclinedError
	if errors.As(err, &declined) {
		return &checkout.GatewayError{Message: declined.Error(), Err: err}
	}
	if errors.Is(err, payment.ErrUnsupportedMethod) {
		return &checkout.GatewayError{Message: "This payment method is not available right now.", Err: err}
	}
	return &checkout.GatewayError{Message: "We could not reach the payment service. Please try again.", Err: err}
}

func newOrderNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}
