package domain

import "time"

// PaymentMethod is how the customer settles an order.
type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentCard  PaymentMethod = "card"
	PaymentCash  PaymentMethod = "cash"
)

// DefaultPaymentMethod is applied when a checkout form leaves the method unset.
const DefaultPaymentMethod = PaymentMpesa

// Valid reports whether m is one of the declared methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMpesa, PaymentCard, PaymentCash:
		return true
	}
	return false
}

// OrderStatus tracks an order through payment.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderFailed    OrderStatus = "failed"
)

// Contact holds the buyer's contact details.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Delivery holds where and when the order is collected or dropped off.
type Delivery struct {
	Street         string `json:"street,omitempty"`
	Apartment      string `json:"apartment,omitempty"`
	City           string `json:"city,omitempty"`
	ArrivalMinutes int    `json:"arrivalMinutes"`
	Instructions   string `json:"instructions,omitempty"`
}

// Order is a submitted checkout.
type Order struct {
	ID               string        `json:"id"`
	Number           string        `json:"number"`
	Reference        string        `json:"reference"`
	CustomerID       *string       `json:"customerId,omitempty"`
	SessionKey       string        `json:"-"`
	Status           OrderStatus   `json:"status"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	PaymentStatus    string        `json:"paymentStatus,omitempty"`
	PaymentReference string        `json:"paymentReference,omitempty"`
	Contact          Contact       `json:"contact"`
	Delivery         Delivery      `json:"delivery"`
	Lines            []CartLine    `json:"lines"`
	Subtotal         Money         `json:"subtotal"`
	Fees             Money         `json:"fees"`
	Total            Money         `json:"total"`
	Currency         string        `json:"currency"`
	FailureReason    string        `json:"failureReason,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}
