package httpserver

import (
	"time"

	"orderup/internal/cart"
	"orderup/internal/checkout"
	"orderup/internal/domain"
)

type moneyResponse struct {
	Amount    domain.Money `json:"amount"`
	Currency  string       `json:"currency"`
	Formatted string       `json:"formatted"`
}

func money(m domain.Money, currency string) moneyResponse {
	return moneyResponse{Amount: m, Currency: currency, Formatted: m.Format(currency)}
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUser(c domain.Customer) userResponse {
	return userResponse{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone, CreatedAt: c.CreatedAt}
}

type cartLineResponse struct {
	ItemID       string        `json:"itemId"`
	RestaurantID string        `json:"restaurantId"`
	Name         string        `json:"name"`
	Image        string        `json:"image,omitempty"`
	Category     string        `json:"category,omitempty"`
	UnitPrice    moneyResponse `json:"unitPrice"`
	Quantity     int           `json:"quantity"`
	LineTotal    moneyResponse `json:"lineTotal"`
}

type cartResponse struct {
	Lines      []cartLineResponse `json:"lines"`
	LineCount  int                `json:"lineCount"`
	ItemCount  int                `json:"itemCount"`
	Subtotal   moneyResponse      `json:"subtotal"`
	Fees       moneyResponse      `json:"fees"`
	Total      moneyResponse      `json:"total"`
	FeePolicy  string             `json:"feePolicy"`
	CapturedAt time.Time          `json:"capturedAt"`
}

func toCart(snap domain.CartSnapshot, policy cart.FeePolicy) cartResponse {
	lines := make([]cartLineResponse, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, cartLineResponse{
			ItemID:       l.Item.ID,
			RestaurantID: l.Item.RestaurantID,
			Name:         l.Item.Name,
			Image:        l.Item.Image,
			Category:     l.Item.Category,
			UnitPrice:    money(l.Item.Price, snap.Currency),
			Quantity:     l.Quantity,
			LineTotal:    money(l.LineTotal(), snap.Currency),
		})
	}
	resp := cartResponse{
		Lines:      lines,
		LineCount:  len(snap.Lines),
		ItemCount:  snap.ItemCount(),
		Subtotal:   money(snap.Subtotal, snap.Currency),
		Fees:       money(snap.Fees, snap.Currency),
		Total:      money(snap.Total, snap.Currency),
		CapturedAt: snap.CapturedAt,
	}
	if policy != nil {
		resp.FeePolicy = policy.Name()
	}
	return resp
}

type confirmationResponse struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Status      domain.OrderStatus `json:"status"`
	Reference   string             `json:"reference"`
	Message     string             `json:"message,omitempty"`
}

func toConfirmation(c *checkout.Confirmation) *confirmationResponse {
	if c == nil {
		return nil
	}
	return &confirmationResponse{
		OrderID:     c.OrderID,
		OrderNumber: c.OrderNumber,
		Status:      c.Status,
		Reference:   c.Reference,
		Message:     c.Message,
	}
}

type checkoutStatusResponse struct {
	State        checkout.State        `json:"state"`
	Reference    string                `json:"reference,omitempty"`
	Confirmation *confirmationResponse `json:"confirmation,omitempty"`
	Error        string                `json:"error,omitempty"`
}

func toCheckoutStatus(st checkout.Status) checkoutStatusResponse {
	resp := checkoutStatusResponse{
		State:        st.State,
		Reference:    st.Reference,
		Confirmation: toConfirmation(st.Confirmation),
	}
	if st.Err != nil {
		resp.Error = userMessage(st.Err)
	}
	return resp
}

type orderResponse struct {
	ID               string               `json:"id"`
	Number           string               `json:"number"`
	Reference        string               `json:"reference"`
	Status           domain.OrderStatus   `json:"status"`
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod"`
	PaymentStatus    string               `json:"paymentStatus,omitempty"`
	PaymentReference string               `json:"paymentReference,omitempty"`
	Contact          domain.Contact       `json:"contact"`
	Delivery         domain.Delivery      `json:"delivery"`
	Lines            []cartLineResponse   `json:"lines"`
	ItemCount        int                  `json:"itemCount"`
	Subtotal         moneyResponse        `json:"subtotal"`
	Fees             moneyResponse        `json:"fees"`
	Total            moneyResponse        `json:"total"`
	FailureReason    string               `json:"failureReason,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func toOrder(o domain.Order) orderResponse {
	snap := toCart(domain.CartSnapshot{Lines: o.Lines, Currency: o.Currency}, nil)
	return orderResponse{
		ID:               o.ID,
		Number:           o.Number,
		Reference:        o.Reference,
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		Contact:          o.Contact,
		Delivery:         o.Delivery,
		Lines:            snap.Lines,
		ItemCount:        snap.ItemCount,
		Subtotal:         money(o.Subtotal, o.Currency),
		Fees:             money(o.Fees, o.Currency),
		Total:            money(o.Total, o.Currency),
		FailureReason:    o.FailureReason,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
