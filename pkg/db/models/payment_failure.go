package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// PaymentFailure is the append-only record of a failed gateway attempt.
type PaymentFailure struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	IntentID      uuid.UUID     `gorm:"column:intent_id;type:uuid;not null"`
	OrderID       uuid.UUID     `gorm:"column:order_id;type:uuid;not null"`
	Gateway       enums.Gateway `gorm:"column:gateway;type:payment_gateway;not null"`
	FailureReason string        `gorm:"column:failure_reason;not null"`
	FailureCode   *string       `gorm:"column:failure_code"`
	RawError      types.JSONMap `gorm:"column:raw_error;type:jsonb;serializer:json"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
}
