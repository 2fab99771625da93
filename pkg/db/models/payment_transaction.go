package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// PaymentTransaction is the audit row inserted once per reconciled webhook.
// The (gateway, gateway_transaction_id) pair is unique; a duplicate-key error
// on insert means the event was already processed.
type PaymentTransaction struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Gateway              enums.Gateway       `gorm:"column:gateway;type:payment_gateway;not null;uniqueIndex:idx_payment_transactions_gateway_txn"`
	GatewayTransactionID string              `gorm:"column:gateway_transaction_id;not null;uniqueIndex:idx_payment_transactions_gateway_txn"`
	IntentID             uuid.UUID           `gorm:"column:intent_id;type:uuid;not null"`
	OrderID              uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	Amount               decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status               enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	RawResponse          types.JSONMap       `gorm:"column:raw_response;type:jsonb;serializer:json"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
}
