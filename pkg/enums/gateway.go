package enums

import "fmt"

// Gateway identifies the payment provider a webhook or intent belongs to.
type Gateway string

const (
	GatewayStripe  Gateway = "stripe"
	GatewayPaytm   Gateway = "paytm"
	GatewayPhonePe Gateway = "phonepe"
)

var validGateways = []Gateway{
	GatewayStripe,
	GatewayPaytm,
	GatewayPhonePe,
}

// String implements fmt.Stringer.
func (g Gateway) String() string {
	return string(g)
}

// IsValid reports whether the value is a known Gateway.
func (g Gateway) IsValid() bool {
	for _, candidate := range validGateways {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGateway converts raw input into a Gateway.
func ParseGateway(value string) (Gateway, error) {
	for _, candidate := range validGateways {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gateway %q", value)
}
