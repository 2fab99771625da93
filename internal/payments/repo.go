package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Repository exposes persistence helpers for payment reconciliation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindIntentByExternalID(ctx context.Context, gateway enums.Gateway, externalID string) (*models.PaymentIntent, error)
	UpdateIntent(ctx context.Context, id uuid.UUID, fields map[string]any) error
	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	CreateFailure(ctx context.Context, failure *models.PaymentFailure) error
	UpdateOrderPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error
	CreateTracking(ctx context.Context, tracking *models.OrderTracking) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindIntentByExternalID(ctx context.Context, gateway enums.Gateway, externalID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("gateway = ? AND external_id = ?", gateway, externalID).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repository) UpdateIntent(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) CreateFailure(ctx context.Context, failure *models.PaymentFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}

// UpdateOrderPaymentStatus only runs inside the reconciliation transaction,
// alongside the audit row insert.
func (r *repository) UpdateOrderPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("payment_status", status).Error
}

func (r *repository) CreateTracking(ctx context.Context, tracking *models.OrderTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}
