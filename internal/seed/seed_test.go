package seed

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"orderup/internal/domain"
	restaurantrepo "orderup/internal/repository/restaurant"
)

type memRestaurants struct {
	byKey map[string]domain.Restaurant
	err   error
}

func (m *memRestaurants) List(context.Context, restaurantrepo.Filter) ([]domain.Restaurant, error) {
	return nil, nil
}
func (m *memRestaurants) GetByID(context.Context, string) (*domain.Restaurant, error) {
	return nil, domain.ErrNotFound
}
func (m *memRestaurants) GetByKey(context.Context, string) (*domain.Restaurant, error) {
	return nil, domain.ErrNotFound
}
func (m *memRestaurants) Upsert(_ context.Context, r domain.Restaurant) (*domain.Restaurant, error) {
	if m.err != nil {
		return nil, m.err
	}
	if existing, ok := m.byKey[r.Key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = "r" + strconv.Itoa(len(m.byKey)+1)
	}
	m.byKey[r.Key] = r
	return &r, nil
}

type memMenus struct {
	categories map[string]string
	items      map[string]domain.MenuItem
}

func (m *memMenus) ListByRestaurant(context.Context, string) ([]domain.MenuCategory, error) {
	return nil, nil
}
func (m *memMenus) GetItem(context.Context, string, string) (*domain.MenuItem, error) {
	return nil, domain.ErrNotFound
}
func (m *memMenus) UpsertCategory(_ context.Context, restaurantID string, c domain.MenuCategory) (*domain.MenuCategory, error) {
	k := restaurantID + "/" + c.Key
	if _, ok := m.categories[k]; !ok {
		m.categories[k] = "c" + strconv.Itoa(len(m.categories)+1)
	}
	c.ID = m.categories[k]
	return &c, nil
}
func (m *memMenus) UpsertItem(_ context.Context, _ string, it domain.MenuItem) (*domain.MenuItem, error) {
	m.items[it.RestaurantID+"/"+it.Key] = it
	return &it, nil
}

func TestApplyIsIdempotent(t *testing.T) {
	rests := &memRestaurants{byKey: map[string]domain.Restaurant{}}
	menus := &memMenus{categories: map[string]string{}, items: map[string]domain.MenuItem{}}

	first, err := Apply(context.Background(), rests, menus, nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if first.Restaurants != 6 {
		t.Fatalf("expected 6 restaurants, got %d", first.Restaurants)
	}
	if _, err := Apply(context.Background(), rests, menus, nil); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(rests.byKey) != 6 || len(menus.items) != first.Items {
		t.Fatalf("second apply duplicated rows: %d restaurants, %d items", len(rests.byKey), len(menus.items))
	}

	burger := menus.items[rests.byKey["burger-palace"].ID+"/classic-cheeseburger"]
	if burger.Price != 55000 || burger.Currency != "KES" || !burger.IsPopular {
		t.Fatalf("unexpected seeded item: %+v", burger)
	}
}

func TestApplyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	rests := &memRestaurants{byKey: map[string]domain.Restaurant{}, err: boom}
	menus := &memMenus{categories: map[string]string{}, items: map[string]domain.MenuItem{}}
	if _, err := Apply(context.Background(), rests, menus, nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
