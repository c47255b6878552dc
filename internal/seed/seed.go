package seed

import (
	"context"
	"fmt"

	"orderup/internal/domain"
	menurepo "orderup/internal/repository/menu"
	restaurantrepo "orderup/internal/repository/restaurant"

	"go.uber.org/zap"
)

type itemSeed struct {
	Key         string
	Name        string
	Description string
	Price       string
	Popular     bool
	Vegetarian  bool
}

type categorySeed struct {
	Key   string
	Name  string
	Items []itemSeed
}

type restaurantSeed struct {
	Restaurant domain.Restaurant
	Menu       []categorySeed
}

const placeholderLogo = "https://via.placeholder.com/150"

var restaurants = []restaurantSeed{
	{
		Restaurant: domain.Restaurant{
			Key: "burger-palace", Name: "Burger Palace", Description: "Gourmet burgers and sides",
			CoverImage: "https://images.unsplash.com/photo-1571091718767-18b5b1457add?auto=format&fit=crop&w=1000&q=80",
			Address:    "123 Main St, Nairobi", Distance: "1.5 km", Rating: 4.7, ReviewCount: 250, PriceLevel: 2,
			Cuisine: []string{"Burgers", "American"}, PrepTime: "15-20 min", IsOpen: true,
		},
		Menu: []categorySeed{
			{Key: "popular", Name: "Popular Items", Items: []itemSeed{
				{Key: "classic-cheeseburger", Name: "Classic Cheeseburger", Description: "Beef patty with cheese, lettuce, tomato, and special sauce", Price: "550", Popular: true},
				{Key: "crispy-chicken-burger", Name: "Crispy Chicken Burger", Description: "Crispy fried chicken with lettuce, mayo, and pickles", Price: "600", Popular: true},
			}},
			{Key: "burgers", Name: "Burgers", Items: []itemSeed{
				{Key: "double-bacon-burger", Name: "Double Bacon Burger", Description: "Two beef patties with bacon, cheese, and BBQ sauce", Price: "750"},
				{Key: "veggie-burger", Name: "Veggie Burger", Description: "Plant-based patty with lettuce, tomato, and vegan mayo", Price: "500", Vegetarian: true},
			}},
			{Key: "sides", Name: "Sides", Items: []itemSeed{
				{Key: "french-fries", Name: "French Fries", Description: "Crispy golden fries with seasoning", Price: "250", Popular: true, Vegetarian: true},
				{Key: "onion-rings", Name: "Onion Rings", Description: "Battered and fried onion rings with dipping sauce", Price: "300", Vegetarian: true},
			}},
			{Key: "drinks", Name: "Drinks", Items: []itemSeed{
				{Key: "coca-cola", Name: "Coca Cola", Description: "Classic cola soft drink (500ml)", Price: "150", Vegetarian: true},
				{Key: "chocolate-milkshake", Name: "Chocolate Milkshake", Description: "Creamy chocolate milkshake with whipped cream", Price: "350", Vegetarian: true},
			}},
		},
	},
	{
		Restaurant: domain.Restaurant{
			Key: "pizza-haven", Name: "Pizza Haven", Description: "Authentic Italian pizzas",
			CoverImage: "https://images.unsplash.com/photo-1604382354936-07c5d9983bd3?auto=format&fit=crop&w=1000&q=80",
			Address:    "456 Oak Ave, Nairobi", Distance: "0.8 km", Rating: 4.5, ReviewCount: 180, PriceLevel: 2,
			Cuisine: []string{"Pizza", "Italian"}, PrepTime: "20-25 min", IsOpen: true,
		},
		Menu: []categorySeed{
			{Key: "pizzas", Name: "Pizzas", Items: []itemSeed{
				{Key: "margherita", Name: "Margherita", Description: "Tomato, mozzarella, and basil", Price: "900", Popular: true, Vegetarian: true},
				{Key: "pepperoni", Name: "Pepperoni", Description: "Tomato, mozzarella, and pepperoni", Price: "1100", Popular: true},
			}},
		},
	},
	{
		Restaurant: domain.Restaurant{
			Key: "sushi-world", Name: "Sushi World", Description: "Fresh sushi and Japanese cuisine",
			CoverImage: "https://images.unsplash.com/photo-1553621042-f6e147245754?auto=format&fit=crop&w=1000&q=80",
			Address:    "789 Elm Blvd, Nairobi", Distance: "2.2 km", Rating: 4.8, ReviewCount: 320, PriceLevel: 3,
			Cuisine: []string{"Japanese", "Sushi"}, PrepTime: "25-30 min", IsOpen: true,
		},
	},
	{
		Restaurant: domain.Restaurant{
			Key: "taco-fiesta", Name: "Taco Fiesta", Description: "Authentic Mexican tacos",
			CoverImage: "https://images.unsplash.com/photo-1565299585323-38d6b0865b47?auto=format&fit=crop&w=1000&q=80",
			Address:    "101 Pine St, Nairobi", Distance: "1.0 km", Rating: 4.3, ReviewCount: 150, PriceLevel: 1,
			Cuisine: []string{"Mexican", "Tacos"}, PrepTime: "10-15 min", IsOpen: true,
		},
	},
	{
		Restaurant: domain.Restaurant{
			Key: "cafe-delight", Name: "Cafe Delight", Description: "Specialty coffees and pastries",
			CoverImage: "https://images.unsplash.com/photo-1501339847302-ac426a4a7cbb?auto=format&fit=crop&w=1000&q=80",
			Address:    "202 Cedar Rd, Nairobi", Distance: "0.5 km", Rating: 4.6, ReviewCount: 210, PriceLevel: 2,
			Cuisine: []string{"Cafe", "Desserts"}, PrepTime: "5-10 min", IsOpen: true,
		},
	},
	{
		Restaurant: domain.Restaurant{
			Key: "noodle-house", Name: "Noodle House", Description: "Asian noodles and stir-fries",
			CoverImage: "https://images.unsplash.com/photo-1569718212165-3a8278d5f624?auto=format&fit=crop&w=1000&q=80",
			Address:    "303 Birch Ln, Nairobi", Distance: "1.8 km", Rating: 4.4, ReviewCount: 180, PriceLevel: 2,
			Cuisine: []string{"Asian", "Noodles"}, PrepTime: "15-20 min", IsOpen: true,
		},
	},
}

// Result counts what Apply wrote.
type Result struct {
	Restaurants int
	Categories  int
	Items       int
}

// Apply upserts the demo restaurants and menus. It is idempotent: rows are
// matched on their keys.
func Apply(ctx context.Context, rests restaurantrepo.Repository, menus menurepo.Repository, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	for _, rs := range restaurants {
		r := rs.Restaurant
		if r.Logo == "" {
			r.Logo = placeholderLogo
		}
		saved, err := rests.Upsert(ctx, r)
		if err != nil {
			return res, fmt.Errorf("upsert restaurant %s: %w", r.Key, err)
		}
		res.Restaurants++

		for pos, cs := range rs.Menu {
			cat, err := menus.UpsertCategory(ctx, saved.ID, domain.MenuCategory{Key: cs.Key, Name: cs.Name, Position: pos})
			if err != nil {
				return res, fmt.Errorf("upsert category %s/%s: %w", r.Key, cs.Key, err)
			}
			res.Categories++
			for _, is := range cs.Items {
				price, err := domain.MoneyFromMajor(is.Price)
				if err != nil {
					return res, fmt.Errorf("item %s: price %q: %w", is.Key, is.Price, err)
				}
				_, err = menus.UpsertItem(ctx, cat.ID, domain.MenuItem{
					RestaurantID: saved.ID,
					Key:          is.Key,
					Name:         is.Name,
					Description:  is.Description,
					Price:        price,
					Currency:     domain.DefaultCurrency,
					Category:     cs.Name,
					IsPopular:    is.Popular,
					IsVegetarian: is.Vegetarian,
				})
				if err != nil {
					return res, fmt.Errorf("upsert item %s/%s: %w", r.Key, is.Key, err)
				}
				res.Items++
			}
		}
		logger.Info("seed: restaurant", zap.String("key", r.Key), zap.String("id", saved.ID), zap.Int("categories", len(rs.Menu)))
	}
	return res, nil
}
