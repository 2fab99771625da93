package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// OrderCancellation records who cancelled an order and the refund owed.
type OrderCancellation struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null"`
	Reason           string                 `gorm:"column:reason;not null"`
	CancellationType enums.CancellationType `gorm:"column:cancellation_type;type:cancellation_type;not null"`
	RefundAmount     decimal.Decimal        `gorm:"column:refund_amount;type:numeric(12,2);not null;default:0"`
	RefundStatus     enums.RefundStatus     `gorm:"column:refund_status;type:refund_status;not null;default:'not_applicable'"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
}
