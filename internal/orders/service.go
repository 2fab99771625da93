package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/internal/catalog"
	"github.com/freshcart/freshcart-backend/internal/notifications"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
	"github.com/freshcart/freshcart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order lifecycle operations.
type Service interface {
	CancelOrder(ctx context.Context, input CancelInput) (*CancelResult, error)
	ModifyOrder(ctx context.Context, input ModifyInput) (*ModifyResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListUserOrders(ctx context.Context, params ListParams) (*OrderList, error)
}

type service struct {
	repo          Repository
	catalog       catalog.Repository
	notifications notifications.Repository
	tx            txRunner
}

// partialRefundRate applies when a customer cancels while the store is
// already preparing the order.
var partialRefundRate = decimal.NewFromFloat(0.80)

// NewService builds the order lifecycle service with its required dependencies.
func NewService(repo Repository, catalogRepo catalog.Repository, notificationsRepo notifications.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if catalogRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	if notificationsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:          repo,
		catalog:       catalogRepo,
		notifications: notificationsRepo,
		tx:            tx,
	}, nil
}

func (s *service) CancelOrder(ctx context.Context, input CancelInput) (*CancelResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cancellation type")
	}

	var result CancelResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !isCancellable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled in current state")
		}

		refundAmount, refundStatus := computeRefund(order, input.Type)

		cancellation := &models.OrderCancellation{
			OrderID:          order.ID,
			Reason:           input.Reason,
			CancellationType: input.Type,
			RefundAmount:     refundAmount,
			RefundStatus:     refundStatus,
		}
		if err := repo.CreateCancellation(ctx, cancellation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record cancellation")
		}

		now := time.Now().UTC()
		fields := map[string]any{
			"status":              enums.OrderStatusCancelled,
			"cancelled_at":        now,
			"cancellation_reason": input.Reason,
		}
		if err := repo.UpdateOrder(ctx, order.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		tracking := &models.OrderTracking{
			OrderID: order.ID,
			Status:  "cancelled",
			Note:    &input.Reason,
		}
		if err := repo.CreateTracking(ctx, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking")
		}

		if refundAmount.IsPositive() {
			notification := &models.Notification{
				UserID:  order.UserID,
				Type:    enums.NotificationTypeRefundNotice,
				Title:   "Refund initiated",
				Message: "A refund of " + refundAmount.StringFixed(2) + " has been initiated for your cancelled order.",
			}
			if err := s.notifications.WithTx(tx).Create(ctx, notification); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund notification")
			}
		}

		result = CancelResult{Cancellation: cancellation, RefundAmount: refundAmount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ModifyOrder(ctx context.Context, input ModifyInput) (*ModifyResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Items) == 0 && input.DeliveryAddress == nil && input.DeliveryInstructions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no changes requested")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item product id required")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	var result ModifyResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !isModifiable(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be modified in current state")
		}

		modification := &models.OrderModification{
			OrderID:          order.ID,
			ModificationType: modificationType(input),
			NewValue:         modificationSnapshot(input),
			Reason:           input.Reason,
		}
		if err := repo.CreateModification(ctx, modification); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record modification")
		}

		fields := map[string]any{}

		if len(input.Items) > 0 {
			items, itemsTotal, err := s.priceItems(ctx, tx, order.ID, input.Items)
			if err != nil {
				return err
			}
			if err := repo.ReplaceOrderItems(ctx, order.ID, items); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace order items")
			}
			newTotal := itemsTotal.Add(order.DeliveryFee).Sub(order.DiscountAmount).Round(2)
			fields["total_amount"] = newTotal
			result.NewTotal = &newTotal
		}

		if input.DeliveryAddress != nil {
			fields["delivery_address"] = *input.DeliveryAddress
		}
		if input.DeliveryInstructions != nil {
			fields["delivery_instructions"] = *input.DeliveryInstructions
		}
		if len(fields) > 0 {
			if err := repo.UpdateOrder(ctx, order.ID, fields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
			}
		}

		now := time.Now().UTC()
		if err := repo.ApproveModification(ctx, modification.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve modification")
		}
		modification.Status = enums.ModificationStatusApproved
		modification.ProcessedAt = &now

		tracking := &models.OrderTracking{
			OrderID: order.ID,
			Status:  "modified",
			Note:    input.Reason,
		}
		if err := repo.CreateTracking(ctx, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record tracking")
		}

		result.Modification = modification
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListUserOrders(ctx context.Context, params ListParams) (*OrderList, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listOrdersParams{
		UserID: params.UserID,
		Limit:  params.Limit,
		Status: params.Status,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListUserOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	for _, row := range rows {
		totalItems := 0
		for _, item := range row.Items {
			totalItems += item.Quantity
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:            row.ID,
			Status:        row.Status,
			PaymentStatus: row.PaymentStatus,
			TotalAmount:   row.TotalAmount,
			TotalItems:    totalItems,
			CreatedAt:     row.CreatedAt,
		})
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// priceItems resolves unit prices and builds the replacement line set.
func (s *service) priceItems(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, items []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	catalogRepo := s.catalog.WithTx(tx)
	rows := make([]models.OrderItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		unitPrice, err := catalogRepo.ResolvePrice(ctx, item.ProductID, item.VariationID)
		if err != nil {
			if errors.Is(err, catalog.ErrPriceNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve price")
		}
		linePrice := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		rows = append(rows, models.OrderItem{
			OrderID:     orderID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  linePrice,
		})
		total = total.Add(linePrice)
	}
	return rows, total, nil
}

func isCancellable(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPending, enums.OrderStatusConfirmed, enums.OrderStatusPreparing:
		return true
	default:
		return false
	}
}

func isModifiable(status enums.OrderStatus) bool {
	switch status {
	case enums.OrderStatusPending, enums.OrderStatusConfirmed:
		return true
	default:
		return false
	}
}

// computeRefund applies the tiered refund policy. Unpaid orders refund
// nothing; paid orders refund in full except customer cancellations during
// preparation, which forfeit 20%.
func computeRefund(order *models.Order, cancellationType enums.CancellationType) (decimal.Decimal, enums.RefundStatus) {
	if order.PaymentStatus != enums.PaymentStatusCompleted {
		return decimal.Zero, enums.RefundStatusNotApplicable
	}
	if order.Status == enums.OrderStatusPreparing && cancellationType == enums.CancellationTypeCustomer {
		return order.TotalAmount.Mul(partialRefundRate).Round(2), enums.RefundStatusPending
	}
	return order.TotalAmount, enums.RefundStatusPending
}

func modificationType(input ModifyInput) enums.ModificationType {
	kinds := 0
	result := enums.ModificationTypeMixed
	if len(input.Items) > 0 {
		kinds++
		result = enums.ModificationTypeItems
	}
	if input.DeliveryAddress != nil {
		kinds++
		result = enums.ModificationTypeAddress
	}
	if input.DeliveryInstructions != nil {
		kinds++
		result = enums.ModificationTypeInstructions
	}
	if kinds > 1 {
		return enums.ModificationTypeMixed
	}
	return result
}

func modificationSnapshot(input ModifyInput) types.JSONMap {
	snapshot := types.JSONMap{}
	if len(input.Items) > 0 {
		items := make([]map[string]any, 0, len(input.Items))
		for _, item := range input.Items {
			entry := map[string]any{
				"product_id": item.ProductID.String(),
				"quantity":   item.Quantity,
			}
			if item.VariationID != nil {
				entry["variation_id"] = item.VariationID.String()
			}
			items = append(items, entry)
		}
		snapshot["items"] = items
	}
	if input.DeliveryAddress != nil {
		snapshot["delivery_address"] = *input.DeliveryAddress
	}
	if input.DeliveryInstructions != nil {
		snapshot["delivery_instructions"] = *input.DeliveryInstructions
	}
	return snapshot
}
