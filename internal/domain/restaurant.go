package domain

import "time"

// Restaurant is a venue customers can pre-order from.
type Restaurant struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	Address     string    `json:"address,omitempty"`
	Distance    string    `json:"distance,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	PriceLevel  int       `json:"priceLevel"`
	Cuisine     []string  `json:"cuisine"`
	PrepTime    string    `json:"prepTime,omitempty"`
	IsOpen      bool      `json:"isOpen"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MenuItem is a purchasable item. Values are copied into cart lines, so a
// later catalog change never rewrites a cart's prices.
type MenuItem struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Key          string `json:"key,omitempty"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        Money  `json:"price"`
	Currency     string `json:"currency"`
	Image        string `json:"image,omitempty"`
	Category     string `json:"category"`
	IsPopular    bool   `json:"isPopular"`
	IsVegetarian bool   `json:"isVegetarian"`
}

// MenuCategory groups a restaurant's items for display.
type MenuCategory struct {
	ID       string     `json:"id"`
	Key      string     `json:"key,omitempty"`
	Name     string     `json:"name"`
	Position int        `json:"position"`
	Items    []MenuItem `json:"items"`
}
