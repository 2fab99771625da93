package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Order is the customer order aggregate root.
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status               enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	TotalAmount          decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DeliveryFee          decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	DiscountAmount       decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	DeliveryAddress      string              `gorm:"column:delivery_address;not null"`
	DeliveryInstructions *string             `gorm:"column:delivery_instructions"`
	CancellationReason   *string             `gorm:"column:cancellation_reason"`
	CancelledAt          *time.Time          `gorm:"column:cancelled_at"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Cancellation         *OrderCancellation  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentIntent        *PaymentIntent      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
