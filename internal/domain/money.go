package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places carried by Money.
const MinorUnits = 2

// DefaultCurrency is used when a price or cart does not name one.
const DefaultCurrency = "KES"

// Money is an amount in minor currency units (cents of a shilling).
type Money int64

var currencySymbols = map[string]string{
	"KES": "KSh",
	"USD": "$",
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -MinorUnits)
}

// MajorUnitsCeil rounds the amount up to a whole major unit.
func (m Money) MajorUnitsCeil() int64 {
	return m.Decimal().Ceil().IntPart()
}

// Format renders the amount like "KSh 1,350.00".
func (m Money) Format(currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency)
	}
	return symbol + " " + groupThousands(m.Decimal().StringFixed(MinorUnits))
}

// MoneyFromMajor converts a major-unit amount such as "550" or "12.5".
func MoneyFromMajor(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return Money(d.Shift(MinorUnits).Round(0).IntPart()), nil
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
