package restaurant

import (
	"context"

	"orderup/internal/domain"
)

// Filter narrows a restaurant listing. Search matches name or cuisine,
// Cuisine matches cuisine only; both are case-insensitive substrings.
type Filter struct {
	Search  string
	Cuisine string
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]domain.Restaurant, error)
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	GetByKey(ctx context.Context, key string) (*domain.Restaurant, error)
	Upsert(ctx context.Context, r domain.Restaurant) (*domain.Restaurant, error)
}
