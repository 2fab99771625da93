package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// CancelInput captures the data required to cancel an order.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Type    enums.CancellationType
}

// CancelResult returns the recorded cancellation and the refund owed.
type CancelResult struct {
	Cancellation *models.OrderCancellation `json:"cancellation"`
	RefundAmount decimal.Decimal           `json:"refund_amount"`
}

// ItemInput is one requested line in an item modification.
type ItemInput struct {
	ProductID   uuid.UUID  `json:"product_id"`
	VariationID *uuid.UUID `json:"variation_id,omitempty"`
	Quantity    int        `json:"quantity"`
}

// ModifyInput captures a requested order change. Nil fields are left untouched.
type ModifyInput struct {
	OrderID              uuid.UUID
	Items                []ItemInput
	DeliveryAddress      *string
	DeliveryInstructions *string
	Reason               *string
}

// ModifyResult returns the approved modification and, for item changes, the
// recomputed order total.
type ModifyResult struct {
	Modification *models.OrderModification `json:"modification"`
	NewTotal     *decimal.Decimal          `json:"new_total,omitempty"`
}

// ListParams configures the user order list.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
	Status *enums.OrderStatus
}

// OrderSummary exposes the aggregated fields returned in the list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	TotalItems    int                 `json:"total_items"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
