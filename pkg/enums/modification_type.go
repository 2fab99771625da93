package enums

import "fmt"

// ModificationType names what an order modification request changes.
type ModificationType string

const (
	ModificationTypeItems        ModificationType = "items"
	ModificationTypeAddress      ModificationType = "address"
	ModificationTypeInstructions ModificationType = "instructions"
	ModificationTypeMixed        ModificationType = "mixed"
)

var validModificationTypes = []ModificationType{
	ModificationTypeItems,
	ModificationTypeAddress,
	ModificationTypeInstructions,
	ModificationTypeMixed,
}

// IsValid reports whether the value is a known ModificationType.
func (m ModificationType) IsValid() bool {
	for _, candidate := range validModificationTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModificationType converts raw input into a ModificationType.
func ParseModificationType(value string) (ModificationType, error) {
	for _, candidate := range validModificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid modification type %q", value)
}
