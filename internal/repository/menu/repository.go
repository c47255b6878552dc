package menu

import (
	"context"

	"orderup/internal/domain"
)

// Repository stores restaurant menus.
type Repository interface {
	// ListByRestaurant returns the restaurant's categories in display order,
	// each with its items.
	ListByRestaurant(ctx context.Context, restaurantID string) ([]domain.MenuCategory, error)
	GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	UpsertCategory(ctx context.Context, restaurantID string, c domain.MenuCategory) (*domain.MenuCategory, error)
	UpsertItem(ctx context.Context, categoryID string, item domain.MenuItem) (*domain.MenuItem, error)
}
