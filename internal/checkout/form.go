package checkout

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"orderup/internal/domain"

	"github.com/go-playground/validator/v10"
)

const (
	defaultArrivalTime = "30"
	defaultCity        = "Nairobi"
)

// Form is what the customer fills in on the checkout surface.
type Form struct {
	Name                string               `json:"name" validate:"required,max=120"`
	Phone               string               `json:"phone" validate:"required,phone"`
	Email               string               `json:"email" validate:"required,email,max=254"`
	Street              string               `json:"street" validate:"max=200"`
	Apartment           string               `json:"apartment" validate:"max=200"`
	City                string               `json:"city" validate:"max=100"`
	ArrivalTime         string               `json:"arrivalTime" validate:"oneof=15 30 45 60 90 120"`
	SpecialInstructions string               `json:"specialInstructions" validate:"max=500"`
	PaymentMethod       domain.PaymentMethod `json:"paymentMethod" validate:"oneof=mpesa card cash"`
}

var fieldLabels = map[string]string{
	"name":                "Name",
	"phone":               "Phone number",
	"email":               "Email",
	"street":              "Street",
	"apartment":           "Apartment",
	"city":                "City",
	"arrivalTime":         "Arrival time",
	"specialInstructions": "Special instructions",
	"paymentMethod":       "Payment method",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone accepts an optional leading "+" followed by 9 to 15 digits.
// Spaces, dashes and parentheses are ignored.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 9 && digits <= 15
}

// normalize trims the form and fills the explicit defaults.
func (f Form) normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = strings.TrimSpace(f.Email)
	f.Street = strings.TrimSpace(f.Street)
	f.Apartment = strings.TrimSpace(f.Apartment)
	f.City = strings.TrimSpace(f.City)
	if f.City == "" {
		f.City = defaultCity
	}
	f.ArrivalTime = strings.TrimSpace(f.ArrivalTime)
	if f.ArrivalTime == "" || f.ArrivalTime == "0" {
		f.ArrivalTime = defaultArrivalTime
	}
	f.SpecialInstructions = strings.TrimSpace(f.SpecialInstructions)
	f.PaymentMethod = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(f.PaymentMethod))))
	if f.PaymentMethod == "" {
		f.PaymentMethod = domain.DefaultPaymentMethod
	}
	return f
}

// Validate normalizes the form and checks every field. The returned map is
// nil when the form is valid.
func (f Form) Validate() (Form, ValidationErrors) {
	f = f.normalize()
	err := validate.Struct(f)
	if err == nil {
		return f, nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return f, ValidationErrors{"form": err.Error()}
	}
	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = fieldMessage(field, fe.Tag())
	}
	return f, out
}

func fieldMessage(field, tag string) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch tag {
	case "required":
		return label + " is required"
	case "max":
		return label + " is too long"
	default:
		return label + " is invalid"
	}
}

func (f Form) contact() domain.Contact {
	return domain.Contact{Name: f.Name, Phone: f.Phone, Email: f.Email}
}

func (f Form) delivery() domain.Delivery {
	minutes, _ := strconv.Atoi(f.ArrivalTime)
	return domain.Delivery{
		Street:         f.Street,
		Apartment:      f.Apartment,
		City:           f.City,
		ArrivalMinutes: minutes,
		Instructions:   f.SpecialInstructions,
	}
}
