package enums

import "fmt"

// CancellationType records who initiated an order cancellation. The refund
// tier for in-preparation orders depends on it.
type CancellationType string

const (
	CancellationTypeCustomer CancellationType = "customer"
	CancellationTypeStore    CancellationType = "store"
)

var validCancellationTypes = []CancellationType{
	CancellationTypeCustomer,
	CancellationTypeStore,
}

// IsValid reports whether the value is a known CancellationType.
func (c CancellationType) IsValid() bool {
	for _, candidate := range validCancellationTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCancellationType converts raw input into a CancellationType.
func ParseCancellationType(value string) (CancellationType, error) {
	for _, candidate := range validCancellationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancellation type %q", value)
}
