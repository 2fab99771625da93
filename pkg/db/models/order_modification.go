package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

// OrderModification records a requested change and its outcome.
type OrderModification struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID                `gorm:"column:order_id;type:uuid;not null"`
	ModificationType enums.ModificationType   `gorm:"column:modification_type;type:modification_type;not null"`
	NewValue         types.JSONMap            `gorm:"column:new_value;type:jsonb;serializer:json"`
	Reason           *string                  `gorm:"column:reason"`
	Status           enums.ModificationStatus `gorm:"column:status;type:modification_status;not null;default:'pending'"`
	ProcessedAt      *time.Time               `gorm:"column:processed_at"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
}
