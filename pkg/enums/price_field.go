package enums

import "fmt"

// PriceField names the product price column charged for a payment method.
type PriceField string

const (
	PriceFieldCash          PriceField = "cash"
	PriceFieldCard          PriceField = "card"
	PriceFieldInstallments3 PriceField = "installments_3"
	PriceFieldInstallments6 PriceField = "installments_6"
)

var validPriceFields = []PriceField{
	PriceFieldCash,
	PriceFieldCard,
	PriceFieldInstallments3,
	PriceFieldInstallments6,
}

// PriceFields returns every known price field in catalog column order.
func PriceFields() []PriceField {
	out := make([]PriceField, len(validPriceFields))
	copy(out, validPriceFields)
	return out
}

// String implements fmt.Stringer.
func (p PriceField) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceField.
func (p PriceField) IsValid() bool {
	for _, candidate := range validPriceFields {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceField converts raw input into a PriceField.
func ParsePriceField(value string) (PriceField, error) {
	for _, candidate := range validPriceFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price field %q", value)
}
