package enums

import "fmt"

// IntentStatus tracks the lifecycle of a payment intent against its gateway.
type IntentStatus string

const (
	IntentStatusPending IntentStatus = "pending"
	IntentStatusSuccess IntentStatus = "success"
	IntentStatusFailed  IntentStatus = "failed"
)

var validIntentStatuses = []IntentStatus{
	IntentStatusPending,
	IntentStatusSuccess,
	IntentStatusFailed,
}

// String implements fmt.Stringer.
func (i IntentStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known IntentStatus.
func (i IntentStatus) IsValid() bool {
	for _, candidate := range validIntentStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIntentStatus converts raw input into an IntentStatus.
func ParseIntentStatus(value string) (IntentStatus, error) {
	for _, candidate := range validIntentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid intent status %q", value)
}
