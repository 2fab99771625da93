package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/catalog"
	"github.com/freshcart/freshcart-backend/internal/notifications"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

type fakeOrdersRepo struct {
	order *models.Order

	cancellations []*models.OrderCancellation
	modifications []*models.OrderModification
	tracking      []*models.OrderTracking
	updatedFields map[string]any
	replacedItems []models.OrderItem
	approvedMods  []uuid.UUID
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findOrder(id)
}

func (f *fakeOrdersRepo) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return f.findOrder(id)
}

func (f *fakeOrdersRepo) findOrder(id uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.order
	return &copied, nil
}

func (f *fakeOrdersRepo) ListUserOrders(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	if f.order == nil || f.order.UserID != params.UserID {
		return nil, nil, nil
	}
	return []models.Order{*f.order}, nil, nil
}

func (f *fakeOrdersRepo) UpdateOrder(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	f.updatedFields = fields
	return nil
}

func (f *fakeOrdersRepo) CreateCancellation(ctx context.Context, cancellation *models.OrderCancellation) error {
	cancellation.ID = uuid.New()
	f.cancellations = append(f.cancellations, cancellation)
	return nil
}

func (f *fakeOrdersRepo) CreateModification(ctx context.Context, modification *models.OrderModification) error {
	modification.ID = uuid.New()
	f.modifications = append(f.modifications, modification)
	return nil
}

func (f *fakeOrdersRepo) ApproveModification(ctx context.Context, id uuid.UUID, processedAt time.Time) error {
	f.approvedMods = append(f.approvedMods, id)
	return nil
}

func (f *fakeOrdersRepo) ReplaceOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	f.replacedItems = items
	return nil
}

func (f *fakeOrdersRepo) CreateTracking(ctx context.Context, tracking *models.OrderTracking) error {
	f.tracking = append(f.tracking, tracking)
	return nil
}

type fakeCatalogRepo struct {
	prices map[uuid.UUID]decimal.Decimal
}

func (f *fakeCatalogRepo) WithTx(tx *gorm.DB) catalog.Repository { return f }

func (f *fakeCatalogRepo) ResolvePrice(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID) (decimal.Decimal, error) {
	key := productID
	if variationID != nil {
		key = *variationID
	}
	price, ok := f.prices[key]
	if !ok {
		return decimal.Zero, catalog.ErrPriceNotFound
	}
	return price, nil
}

// fakeNotificationsRepo only backs Create; the embedded interface covers
// the methods the orders service never touches.
type fakeNotificationsRepo struct {
	notifications.Repository
	created []*models.Notification
}

func (f *fakeNotificationsRepo) WithTx(tx *gorm.DB) notifications.Repository { return f }

func (f *fakeNotificationsRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *fakeOrdersRepo, catalogRepo *fakeCatalogRepo, notes *fakeNotificationsRepo) Service {
	t.Helper()
	if catalogRepo == nil {
		catalogRepo = &fakeCatalogRepo{}
	}
	if notes == nil {
		notes = &fakeNotificationsRepo{}
	}
	svc, err := NewService(repo, catalogRepo, notes, passthroughTx{})
	require.NoError(t, err)
	return svc
}

func paidOrder(status enums.OrderStatus, total string) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Status:        status,
		PaymentStatus: enums.PaymentStatusCompleted,
		TotalAmount:   decimal.RequireFromString(total),
		DeliveryFee:   decimal.RequireFromString("5.00"),
	}
}

func TestCancelOrder_FullRefundWhenConfirmed(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusConfirmed, "100.00")}
	notes := &fakeNotificationsRepo{}
	svc := newTestService(t, repo, nil, notes)

	result, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		Reason:  "changed my mind",
		Type:    enums.CancellationTypeCustomer,
	})
	require.NoError(t, err)

	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("100.00")))
	require.Len(t, repo.cancellations, 1)
	assert.Equal(t, enums.RefundStatusPending, repo.cancellations[0].RefundStatus)
	assert.Equal(t, enums.OrderStatusCancelled, repo.updatedFields["status"])
	require.Len(t, repo.tracking, 1)
	assert.Equal(t, "cancelled", repo.tracking[0].Status)
	require.Len(t, notes.created, 1)
	assert.Equal(t, enums.NotificationTypeRefundNotice, notes.created[0].Type)
}

func TestCancelOrder_PartialRefundWhenCustomerCancelsPreparing(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusPreparing, "100.00")}
	svc := newTestService(t, repo, nil, nil)

	result, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		Reason:  "too slow",
		Type:    enums.CancellationTypeCustomer,
	})
	require.NoError(t, err)

	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("80.00")),
		"got %s", result.RefundAmount)
}

func TestCancelOrder_FullRefundWhenStoreCancelsPreparing(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusPreparing, "64.50")}
	svc := newTestService(t, repo, nil, nil)

	result, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		Reason:  "out of stock",
		Type:    enums.CancellationTypeStore,
	})
	require.NoError(t, err)

	assert.True(t, result.RefundAmount.Equal(decimal.RequireFromString("64.50")))
}

func TestCancelOrder_NoRefundWhenUnpaid(t *testing.T) {
	order := paidOrder(enums.OrderStatusPending, "42.00")
	order.PaymentStatus = enums.PaymentStatusPending
	repo := &fakeOrdersRepo{order: order}
	notes := &fakeNotificationsRepo{}
	svc := newTestService(t, repo, nil, notes)

	result, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: order.ID,
		Reason:  "never paid",
		Type:    enums.CancellationTypeCustomer,
	})
	require.NoError(t, err)

	assert.True(t, result.RefundAmount.IsZero())
	assert.Equal(t, enums.RefundStatusNotApplicable, repo.cancellations[0].RefundStatus)
	assert.Empty(t, notes.created, "no refund notification for a zero refund")
}

func TestCancelOrder_StateConflictWhenDelivered(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusDelivered, "10.00")}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		Reason:  "too late",
		Type:    enums.CancellationTypeCustomer,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelOrder_SecondCancelFailsPrecondition(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusCancelled, "10.00")}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: repo.order.ID,
		Reason:  "again",
		Type:    enums.CancellationTypeCustomer,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestCancelOrder_NotFound(t *testing.T) {
	repo := &fakeOrdersRepo{}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.CancelOrder(context.Background(), CancelInput{
		OrderID: uuid.New(),
		Reason:  "missing",
		Type:    enums.CancellationTypeCustomer,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestModifyOrder_RepricesItems(t *testing.T) {
	order := paidOrder(enums.OrderStatusConfirmed, "50.00")
	order.DiscountAmount = decimal.RequireFromString("2.00")
	repo := &fakeOrdersRepo{order: order}

	productID := uuid.New()
	variationID := uuid.New()
	otherProductID := uuid.New()
	catalogRepo := &fakeCatalogRepo{prices: map[uuid.UUID]decimal.Decimal{
		variationID:    decimal.RequireFromString("12.50"),
		otherProductID: decimal.RequireFromString("3.00"),
	}}
	svc := newTestService(t, repo, catalogRepo, nil)

	result, err := svc.ModifyOrder(context.Background(), ModifyInput{
		OrderID: order.ID,
		Items: []ItemInput{
			{ProductID: productID, VariationID: &variationID, Quantity: 2},
			{ProductID: otherProductID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	// 2*12.50 + 3*3.00 + 5.00 fee - 2.00 discount
	require.NotNil(t, result.NewTotal)
	assert.True(t, result.NewTotal.Equal(decimal.RequireFromString("37.00")),
		"got %s", result.NewTotal)
	require.Len(t, repo.replacedItems, 2)
	assert.True(t, repo.replacedItems[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, enums.ModificationStatusApproved, result.Modification.Status)
	require.NotNil(t, result.Modification.ProcessedAt)
	require.Len(t, repo.tracking, 1)
	assert.Equal(t, "modified", repo.tracking[0].Status)
}

func TestModifyOrder_UnknownProductRollsBack(t *testing.T) {
	order := paidOrder(enums.OrderStatusPending, "50.00")
	repo := &fakeOrdersRepo{order: order}
	svc := newTestService(t, repo, &fakeCatalogRepo{}, nil)

	_, err := svc.ModifyOrder(context.Background(), ModifyInput{
		OrderID: order.ID,
		Items:   []ItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestModifyOrder_AddressOnly(t *testing.T) {
	order := paidOrder(enums.OrderStatusConfirmed, "50.00")
	repo := &fakeOrdersRepo{order: order}
	svc := newTestService(t, repo, nil, nil)

	address := "12 Market Street"
	result, err := svc.ModifyOrder(context.Background(), ModifyInput{
		OrderID:         order.ID,
		DeliveryAddress: &address,
	})
	require.NoError(t, err)

	assert.Nil(t, result.NewTotal)
	assert.Equal(t, enums.ModificationTypeAddress, result.Modification.ModificationType)
	assert.Equal(t, address, repo.updatedFields["delivery_address"])
	assert.Empty(t, repo.replacedItems)
}

func TestModifyOrder_MixedChanges(t *testing.T) {
	order := paidOrder(enums.OrderStatusPending, "50.00")
	repo := &fakeOrdersRepo{order: order}
	productID := uuid.New()
	catalogRepo := &fakeCatalogRepo{prices: map[uuid.UUID]decimal.Decimal{
		productID: decimal.RequireFromString("1.00"),
	}}
	svc := newTestService(t, repo, catalogRepo, nil)

	instructions := "leave at the door"
	result, err := svc.ModifyOrder(context.Background(), ModifyInput{
		OrderID:              order.ID,
		Items:                []ItemInput{{ProductID: productID, Quantity: 1}},
		DeliveryInstructions: &instructions,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ModificationTypeMixed, result.Modification.ModificationType)
}

func TestModifyOrder_StateConflictWhenPreparing(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusPreparing, "50.00")}
	svc := newTestService(t, repo, nil, nil)

	address := "somewhere else"
	_, err := svc.ModifyOrder(context.Background(), ModifyInput{
		OrderID:         repo.order.ID,
		DeliveryAddress: &address,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestModifyOrder_NoChangesRejected(t *testing.T) {
	repo := &fakeOrdersRepo{order: paidOrder(enums.OrderStatusPending, "50.00")}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.ModifyOrder(context.Background(), ModifyInput{OrderID: repo.order.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
