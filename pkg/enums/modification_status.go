package enums

import "fmt"

// ModificationStatus tracks the review state of an order modification request.
type ModificationStatus string

const (
	ModificationStatusPending  ModificationStatus = "pending"
	ModificationStatusApproved ModificationStatus = "approved"
	ModificationStatusRejected ModificationStatus = "rejected"
)

var validModificationStatuses = []ModificationStatus{
	ModificationStatusPending,
	ModificationStatusApproved,
	ModificationStatusRejected,
}

// IsValid reports whether the value is a known ModificationStatus.
func (m ModificationStatus) IsValid() bool {
	for _, candidate := range validModificationStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModificationStatus converts raw input into a ModificationStatus.
func ParseModificationStatus(value string) (ModificationStatus, error) {
	for _, candidate := range validModificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid modification status %q", value)
}
