package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"orderup/internal/domain"
)

type stubRestaurantRepo struct {
	byKey   map[string]string
	lookups int
}

func (s *stubRestaurantRepo) GetByKey(_ context.Context, key string) (*domain.Restaurant, error) {
	s.lookups++
	id, ok := s.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Restaurant{ID: id, Key: key}, nil
}

type stubMenuRepo struct {
	categories []domain.MenuCategory
	items      []domain.MenuItem
	itemCats   []string
}

func (s *stubMenuRepo) UpsertCategory(_ context.Context, _ string, c domain.MenuCategory) (*domain.MenuCategory, error) {
	c.ID = "cat-" + c.Key
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *stubMenuRepo) UpsertItem(_ context.Context, categoryID string, it domain.MenuItem) (*domain.MenuItem, error) {
	s.items = append(s.items, it)
	s.itemCats = append(s.itemCats, categoryID)
	return &it, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `restaurant.key,category.key,category.name,key,name,description,price,currency,image,isPopular,isVegetarian
burger-palace,popular,Popular Items,classic-cheeseburger,Classic Cheeseburger,Beef patty with cheese,550,KES,,true,false
burger-palace,sides,,french-fries,French Fries,Crispy golden fries,250,kes,https://example.com/fries.jpg,yes,1
,,,,,,,,,,
burger-palace,popular,Popular Items,crispy-chicken-burger,Crispy Chicken Burger,,600.50,,,,`

	rests := &stubRestaurantRepo{byKey: map[string]string{"burger-palace": "r1"}}
	menus := &stubMenuRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), rests, menus)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 items imported, got %d", count)
	}
	if rests.lookups != 1 {
		t.Fatalf("expected restaurant lookup to be cached, got %d lookups", rests.lookups)
	}
	if ids := imp.RestaurantIDs(); len(ids) != 1 || ids[0] != "r1" {
		t.Fatalf("unexpected restaurant ids %v", ids)
	}
	if len(menus.categories) != 2 {
		t.Fatalf("expected 2 category upserts, got %d", len(menus.categories))
	}
	if menus.categories[1].Name != "Sides" || menus.categories[1].Position != 1 {
		t.Fatalf("unexpected second category: %+v", menus.categories[1])
	}

	first := menus.items[0]
	if first.RestaurantID != "r1" || first.Price != 55000 || first.Currency != "KES" || !first.IsPopular || first.IsVegetarian {
		t.Fatalf("unexpected first item: %+v", first)
	}
	fries := menus.items[1]
	if fries.Currency != "KES" || !fries.IsPopular || !fries.IsVegetarian || fries.Image == "" {
		t.Fatalf("unexpected fries: %+v", fries)
	}
	if menus.items[2].Price != 60050 || menus.itemCats[2] != "cat-popular" {
		t.Fatalf("unexpected third item: %+v in %s", menus.items[2], menus.itemCats[2])
	}
}

func TestCSVImporter_UnknownRestaurant(t *testing.T) {
	csvData := `restaurant.key,category.key,key,name,price
nowhere,mains,x,X,100`
	imp := NewCSVImporter(strings.NewReader(csvData), &stubRestaurantRepo{byKey: map[string]string{}}, &stubMenuRepo{})
	_, err := imp.Run(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestCSVImporter_InvalidRows(t *testing.T) {
	cases := map[string]string{
		"missing column": "restaurant.key,key,name,price\nr,x,X,1",
		"bad price":      "restaurant.key,category.key,key,name,price\nburger-palace,mains,x,X,abc",
		"zero price":     "restaurant.key,category.key,key,name,price\nburger-palace,mains,x,X,0",
		"missing name":   "restaurant.key,category.key,key,name,price\nburger-palace,mains,x,,10",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			rests := &stubRestaurantRepo{byKey: map[string]string{"burger-palace": "r1"}}
			imp := NewCSVImporter(strings.NewReader(data), rests, &stubMenuRepo{})
			if _, err := imp.Run(context.Background()); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
