package order

import (
	"context"

	"orderup/internal/domain"
)

// Repository persists orders. References are unique: creating an order for a
// reference that already exists returns the stored order instead.
type Repository interface {
	CreatePending(ctx context.Context, o domain.Order) (order *domain.Order, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error)
	MarkConfirmed(ctx context.Context, id, paymentStatus, paymentReference string) (*domain.Order, error)
	MarkFailed(ctx context.Context, id, reason string) (*domain.Order, error)
	// Reopen moves a failed order back to pending with the contents of o.
	// It returns domain.ErrNotFound when the order is not in the failed state.
	Reopen(ctx context.Context, id string, o domain.Order) (*domain.Order, error)
}
