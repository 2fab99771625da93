package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
)

// Repository resolves catalog prices for order re-pricing.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ResolvePrice(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID) (decimal.Decimal, error)
}

// ErrPriceNotFound signals that neither the variation nor the product exists.
var ErrPriceNotFound = errors.New("catalog price not found")

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// ResolvePrice returns the variation price when a variation id is provided,
// falling back to the product base price otherwise.
func (r *repositoryImpl) ResolvePrice(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID) (decimal.Decimal, error) {
	if variationID != nil {
		var variation models.ProductVariation
		err := r.db.WithContext(ctx).
			Where("id = ? AND product_id = ?", *variationID, productID).
			First(&variation).Error
		if err == nil {
			return variation.Price, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, ErrPriceNotFound
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND active", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrPriceNotFound
		}
		return decimal.Zero, err
	}
	return product.BasePrice, nil
}
