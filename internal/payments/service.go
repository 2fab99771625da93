package payments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/logger"
	"github.com/freshcart/freshcart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// gatewayTxnConstraint matches the unique index guarding the audit table.
const gatewayTxnConstraint = "idx_payment_transactions_gateway_txn"

// Service reconciles gateway webhook outcomes against payment state.
type Service interface {
	Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.WebhookMetrics
}

// NewService wires the reconciliation dependencies. Metrics may be nil.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, webhookMetrics *metrics.WebhookMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payments repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		logg:    logg,
		metrics: webhookMetrics,
	}, nil
}

func (s *service) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	start := time.Now()
	if !input.Gateway.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gateway")
	}
	if input.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}
	if input.GatewayTransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway transaction id required")
	}
	if input.Outcome != OutcomeSuccess && input.Outcome != OutcomeFailed {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid outcome")
	}

	ctx = s.logg.WithGateway(ctx, string(input.Gateway))

	intent, err := s.repo.FindIntentByExternalID(ctx, input.Gateway, input.ExternalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncRejected(string(input.Gateway), "unknown_intent")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment intent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}

	var result ReconcileResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txn := &models.PaymentTransaction{
			Gateway:              input.Gateway,
			GatewayTransactionID: input.GatewayTransactionID,
			IntentID:             intent.ID,
			OrderID:              intent.OrderID,
			Amount:               input.Amount,
			Status:               outcomeToPaymentStatus(input.Outcome),
			RawResponse:          input.RawPayload,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, gatewayTxnConstraint) {
				result.AlreadyProcessed = true
				return errAlreadyProcessed
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
		}

		now := time.Now().UTC()
		intentFields := map[string]any{
			"status":       outcomeToIntentStatus(input.Outcome),
			"webhook_data": input.RawPayload,
		}
		if input.Outcome == OutcomeSuccess {
			intentFields["completed_at"] = now
		}
		if err := repo.UpdateIntent(ctx, intent.ID, intentFields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment intent")
		}

		if input.Outcome == OutcomeSuccess {
			if err := repo.UpdateOrderPaymentStatus(ctx, intent.OrderID, enums.PaymentStatusCompleted); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
			}
			tracking := &models.OrderTracking{OrderID: intent.OrderID, Status: "payment_completed"}
			if err := repo.CreateTracking(ctx, tracking); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking")
			}
			return nil
		}

		failure := &models.PaymentFailure{
			IntentID:      intent.ID,
			OrderID:       intent.OrderID,
			Gateway:       input.Gateway,
			FailureReason: failureReason(input.FailureReason),
			FailureCode:   input.FailureCode,
			RawError:      input.RawPayload,
		}
		if err := repo.CreateFailure(ctx, failure); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record failure")
		}
		if err := repo.UpdateOrderPaymentStatus(ctx, intent.OrderID, enums.PaymentStatusFailed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order payment failed")
		}
		tracking := &models.OrderTracking{OrderID: intent.OrderID, Status: "payment_failed"}
		if err := repo.CreateTracking(ctx, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking")
		}
		return nil
	})
	if err != nil && !errors.Is(err, errAlreadyProcessed) {
		return nil, err
	}

	s.metrics.ObserveDuration(string(input.Gateway), time.Since(start))
	if result.AlreadyProcessed {
		s.logg.Info(ctx, "webhook already reconciled, acking")
		s.metrics.IncProcessed(string(input.Gateway), "duplicate")
	} else {
		s.metrics.IncProcessed(string(input.Gateway), string(input.Outcome))
	}

	result.Intent = intent
	return &result, nil
}

// errAlreadyProcessed aborts the transaction without failing the request.
var errAlreadyProcessed = errors.New("transaction already recorded")

func outcomeToPaymentStatus(outcome Outcome) enums.PaymentStatus {
	if outcome == OutcomeSuccess {
		return enums.PaymentStatusCompleted
	}
	return enums.PaymentStatusFailed
}

func outcomeToIntentStatus(outcome Outcome) enums.IntentStatus {
	if outcome == OutcomeSuccess {
		return enums.IntentStatusSuccess
	}
	return enums.IntentStatusFailed
}

func failureReason(reason string) string {
	if reason == "" {
		return "payment failed"
	}
	return reason
}
