package domain

import "time"

// CartLine pairs a menu item with a quantity of at least one.
type CartLine struct {
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
}

// LineTotal is the item price times the quantity.
func (l CartLine) LineTotal() Money {
	return l.Item.Price * Money(l.Quantity)
}

// CartSnapshot is the frozen content of a cart at one instant.
type CartSnapshot struct {
	Lines      []CartLine `json:"lines"`
	Subtotal   Money      `json:"subtotal"`
	Fees       Money      `json:"fees"`
	Total      Money      `json:"total"`
	Currency   string     `json:"currency"`
	CapturedAt time.Time  `json:"capturedAt"`
}

// ItemCount is the sum of quantities across lines.
func (s CartSnapshot) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
