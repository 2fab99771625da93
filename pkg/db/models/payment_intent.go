package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// PaymentIntent tracks the gateway-side payment attempt for an order.
type PaymentIntent struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	Gateway     enums.Gateway      `gorm:"column:gateway;type:payment_gateway;not null"`
	ExternalID  string             `gorm:"column:external_id;not null"`
	Amount      decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.IntentStatus `gorm:"column:status;type:intent_status;not null;default:'pending'"`
	WebhookData types.JSONMap      `gorm:"column:webhook_data;type:jsonb;serializer:json"`
	CompletedAt *time.Time         `gorm:"column:completed_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
