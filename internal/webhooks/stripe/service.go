package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/freshcart/freshcart-backend/internal/payments"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// Service maps Stripe payment-intent events onto the reconciliation engine.
type Service struct {
	reconciler payments.Service
}

func NewService(reconciler payments.Service) (*Service, error) {
	if reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	return &Service{reconciler: reconciler}, nil
}

// HandleEvent reconciles payment-intent outcomes. Events outside that family
// are acked without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.reconcileIntent(ctx, event, payments.OutcomeSuccess)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.reconcileIntent(ctx, event, payments.OutcomeFailed)
	default:
		return nil
	}
}

func (s *Service) reconcileIntent(ctx context.Context, event *stripe.Event, outcome payments.Outcome) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}

	// Stripe amounts arrive in the smallest currency unit.
	amount := decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100)).Round(2)

	raw := types.JSONMap{}
	_ = json.Unmarshal(event.Data.Raw, &raw)

	input := payments.ReconcileInput{
		Gateway:              enums.GatewayStripe,
		ExternalID:           intent.ID,
		GatewayTransactionID: event.ID,
		Outcome:              outcome,
		Amount:               amount,
		RawPayload:           raw,
	}
	if outcome == payments.OutcomeFailed && intent.LastPaymentError != nil {
		input.FailureReason = intent.LastPaymentError.Msg
		if intent.LastPaymentError.Code != "" {
			code := string(intent.LastPaymentError.Code)
			input.FailureCode = &code
		}
	}

	_, err := s.reconciler.Reconcile(ctx, input)
	return err
}
