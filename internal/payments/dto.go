package payments

import (
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// Outcome is the normalized result a gateway reported for a transaction.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// ReconcileInput carries the gateway-agnostic fields extracted from a webhook.
// ExternalID resolves the payment intent; GatewayTransactionID keys the audit
// row and its uniqueness guarantee.
type ReconcileInput struct {
	Gateway              enums.Gateway
	ExternalID           string
	GatewayTransactionID string
	Outcome              Outcome
	Amount               decimal.Decimal
	RawPayload           types.JSONMap
	FailureReason        string
	FailureCode          *string
}

// ReconcileResult reports what the reconciliation did.
type ReconcileResult struct {
	AlreadyProcessed bool
	Intent           *models.PaymentIntent
}
