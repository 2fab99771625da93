package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderTracking is the append-only status trail for an order.
type OrderTracking struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	Status    string    `gorm:"column:status;not null"`
	Note      *string   `gorm:"column:note"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the singular-free table naming consistent.
func (OrderTracking) TableName() string {
	return "order_tracking"
}
