// Package catalog serves restaurants and menus, caching reads in front of
// Postgres.
package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"orderup/internal/cache"
	"orderup/internal/domain"
	menurepo "orderup/internal/repository/menu"
	restaurantrepo "orderup/internal/repository/restaurant"

	"go.uber.org/zap"
)

// Filter narrows a restaurant listing.
type Filter = restaurantrepo.Filter

type Service struct {
	restaurants restaurantrepo.Repository
	menus       menurepo.Repository
	cache       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
}

func New(restaurants restaurantrepo.Repository, menus menurepo.Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.NewNop("catalog")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{restaurants: restaurants, menus: menus, cache: c, ttl: ttl, logger: logger}
}

func (s *Service) ListRestaurants(ctx context.Context, f Filter) ([]domain.Restaurant, error) {
	key := s.cache.GenerateKey("restaurants", strings.ToLower(strings.TrimSpace(f.Search))+"|"+strings.ToLower(strings.TrimSpace(f.Cuisine)))
	var out []domain.Restaurant
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	out, err := s.restaurants.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Restaurant{}
	}
	s.store(ctx, key, out)
	return out, nil
}

func (s *Service) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	key := s.cache.GenerateKey("restaurant", id)
	var out domain.Restaurant
	if s.cached(ctx, key, &out) {
		return &out, nil
	}
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, r)
	return r, nil
}

// GetMenu returns the restaurant's menu grouped by category. An unknown
// restaurant is domain.ErrNotFound.
func (s *Service) GetMenu(ctx context.Context, restaurantID string) ([]domain.MenuCategory, error) {
	key := s.cache.GenerateKey("menu", restaurantID)
	var out []domain.MenuCategory
	if s.cached(ctx, key, &out) {
		return out, nil
	}
	if _, err := s.GetRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	out, err := s.menus.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.MenuCategory{}
	}
	s.store(ctx, key, out)
	return out, nil
}

// GetItem reads through to the database so carts always price from the
// current menu.
func (s *Service) GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	return s.menus.GetItem(ctx, restaurantID, itemID)
}

// Invalidate drops cached entries for a restaurant after its menu changes.
func (s *Service) Invalidate(ctx context.Context, restaurantID string) {
	keys := []string{s.cache.GenerateKey("restaurant", restaurantID), s.cache.GenerateKey("menu", restaurantID)}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("catalog: invalidate", zap.String("restaurant_id", restaurantID), zap.Error(err))
	}
}

func (s *Service) cached(ctx context.Context, key string, dst any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("catalog: cache get", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Warn("catalog: cache decode", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
		s.logger.Warn("catalog: cache set", zap.String("key", key), zap.Error(err))
	}
}
