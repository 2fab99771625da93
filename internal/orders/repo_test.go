package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  total_amount TEXT NOT NULL,
  delivery_fee TEXT NOT NULL DEFAULT '0',
  discount_amount TEXT NOT NULL DEFAULT '0',
  delivery_address TEXT NOT NULL,
  delivery_instructions TEXT,
  cancellation_reason TEXT,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variation_id TEXT,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  total_price TEXT NOT NULL,
  created_at DATETIME
);`
	cancellations := `
CREATE TABLE IF NOT EXISTS order_cancellations (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  reason TEXT NOT NULL,
  cancellation_type TEXT NOT NULL,
  refund_amount TEXT NOT NULL DEFAULT '0',
  refund_status TEXT NOT NULL DEFAULT 'not_applicable',
  created_at DATETIME
);`
	modifications := `
CREATE TABLE IF NOT EXISTS order_modifications (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  modification_type TEXT NOT NULL,
  new_value TEXT,
  reason TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  processed_at DATETIME,
  created_at DATETIME
);`
	tracking := `
CREATE TABLE IF NOT EXISTS order_tracking (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  note TEXT,
  created_at DATETIME
);`
	paymentIntents := `
CREATE TABLE IF NOT EXISTS payment_intents (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  gateway TEXT NOT NULL,
  external_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  webhook_data TEXT,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	require.NoError(t, db.Exec(cancellations).Error)
	require.NoError(t, db.Exec(modifications).Error)
	require.NoError(t, db.Exec(tracking).Error)
	require.NoError(t, db.Exec(paymentIntents).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          status,
		PaymentStatus:   enums.PaymentStatusCompleted,
		TotalAmount:     decimal.RequireFromString("30.00"),
		DeliveryFee:     decimal.RequireFromString("5.00"),
		DeliveryAddress: "1 Grocery Lane",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func createTestItem(t *testing.T, db *gorm.DB, orderID uuid.UUID, qty int) *models.OrderItem {
	t.Helper()

	item := &models.OrderItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		ProductID:  uuid.New(),
		Quantity:   qty,
		UnitPrice:  decimal.RequireFromString("5.00"),
		TotalPrice: decimal.RequireFromString("5.00").Mul(decimal.NewFromInt(int64(qty))),
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryFindOrder_preloadsAssociations(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusCancelled, time.Now().UTC())
	createTestItem(t, db, order.ID, 2)
	cancellation := &models.OrderCancellation{
		ID:               uuid.New(),
		OrderID:          order.ID,
		Reason:           "changed my mind",
		CancellationType: enums.CancellationTypeCustomer,
		RefundAmount:     decimal.RequireFromString("30.00"),
		RefundStatus:     enums.RefundStatusPending,
	}
	require.NoError(t, db.Create(cancellation).Error)

	found, err := repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)
	require.NotNil(t, found.Cancellation)
	assert.Equal(t, enums.RefundStatusPending, found.Cancellation.RefundStatus)
}

func TestRepositoryFindOrder_notFound(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindOrder(context.Background(), uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListUserOrders_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	oldest := createTestOrder(t, db, userID, enums.OrderStatusDelivered, base)
	middle := createTestOrder(t, db, userID, enums.OrderStatusConfirmed, base.Add(time.Hour))
	newest := createTestOrder(t, db, userID, enums.OrderStatusPending, base.Add(2*time.Hour))

	// unrelated user, should never surface
	createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, base.Add(3*time.Hour))

	page, cursor, err := repo.ListUserOrders(context.Background(), listOrdersParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)
	require.NotNil(t, cursor)

	rest, next, err := repo.ListUserOrders(context.Background(), listOrdersParams{UserID: userID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
	assert.Nil(t, next)
}

func TestRepositoryListUserOrders_statusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	createTestOrder(t, db, userID, enums.OrderStatusDelivered, base)
	pending := createTestOrder(t, db, userID, enums.OrderStatusPending, base.Add(time.Hour))

	status := enums.OrderStatusPending
	page, _, err := repo.ListUserOrders(context.Background(), listOrdersParams{
		UserID: userID,
		Limit:  pagination.DefaultLimit,
		Status: &status,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, pending.ID, page[0].ID)
}

func TestRepositoryUpdateOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusConfirmed, time.Now().UTC())
	now := time.Now().UTC()
	err := repo.UpdateOrder(context.Background(), order.ID, map[string]any{
		"status":              enums.OrderStatusCancelled,
		"cancelled_at":        now,
		"cancellation_reason": "too slow",
	})
	require.NoError(t, err)

	var reloaded models.Order
	require.NoError(t, db.Where("id = ?", order.ID).First(&reloaded).Error)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	require.NotNil(t, reloaded.CancellationReason)
	assert.Equal(t, "too slow", *reloaded.CancellationReason)
	require.NotNil(t, reloaded.CancelledAt)
}

func TestRepositoryReplaceOrderItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	createTestItem(t, db, order.ID, 1)
	createTestItem(t, db, order.ID, 2)

	replacement := []models.OrderItem{{
		ID:         uuid.New(),
		OrderID:    order.ID,
		ProductID:  uuid.New(),
		Quantity:   5,
		UnitPrice:  decimal.RequireFromString("2.00"),
		TotalPrice: decimal.RequireFromString("10.00"),
	}}
	require.NoError(t, repo.ReplaceOrderItems(context.Background(), order.ID, replacement))

	var items []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestRepositoryApproveModification(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	modification := &models.OrderModification{
		ID:               uuid.New(),
		OrderID:          order.ID,
		ModificationType: enums.ModificationTypeAddress,
		NewValue:         map[string]any{"delivery_address": "2 Orchard Road"},
	}
	require.NoError(t, repo.CreateModification(context.Background(), modification))

	now := time.Now().UTC()
	require.NoError(t, repo.ApproveModification(context.Background(), modification.ID, now))

	var reloaded models.OrderModification
	require.NoError(t, db.Where("id = ?", modification.ID).First(&reloaded).Error)
	assert.Equal(t, enums.ModificationStatusApproved, reloaded.Status)
	require.NotNil(t, reloaded.ProcessedAt)
}

func TestRepositoryCreateTracking(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), enums.OrderStatusPending, time.Now().UTC())
	note := "customer cancelled"
	tracking := &models.OrderTracking{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  "cancelled",
		Note:    &note,
	}
	require.NoError(t, repo.CreateTracking(context.Background(), tracking))

	var rows []models.OrderTracking
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "cancelled", rows[0].Status)
}
