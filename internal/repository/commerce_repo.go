package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/qbexport/internal/domain"
	"gorm.io/gorm"
)

// CommerceRepository reads the storefront entities the export loop walks.
// Source keys are the decimal string form of the entity's numeric ID.
type CommerceRepository struct {
	db *gorm.DB
}

// NewCommerceRepository creates a new CommerceRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CommerceRepository: repository instance bound to db.
func NewCommerceRepository(db *gorm.DB) *CommerceRepository {
	return &CommerceRepository{db: db}
}

// scope narrows a query to the exportable rows of a kind. Orders and
// payments only export once completed; everything else exports in full.
func (r *CommerceRepository) scope(ctx context.Context, kind domain.EntityKind) (*gorm.DB, error) {
	q := r.db.WithContext(ctx)
	switch kind {
	case domain.EntityKindCustomer:
		return q.Model(&domain.CustomerProfile{}), nil
	case domain.EntityKindProduct:
		return q.Model(&domain.Product{}), nil
	case domain.EntityKindProductVariation:
		return q.Model(&domain.ProductVariation{}), nil
	case domain.EntityKindOrder:
		return q.Model(&domain.Order{}).Where("state = ?", domain.OrderStateCompleted), nil
	case domain.EntityKindPayment:
		return q.Model(&domain.Payment{}).Where("state = ?", domain.PaymentStateCompleted), nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Count returns how many exportable rows a kind has in total.
func (r *CommerceRepository) Count(ctx context.Context, kind domain.EntityKind) (int64, error) {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// FirstUnmappedKey returns the source key of the oldest exportable row not
// present in mapped, or "" when every row is mapped.
func (r *CommerceRepository) FirstUnmappedKey(ctx context.Context, kind domain.EntityKind, mapped []string) (string, error) {
	q, err := r.scope(ctx, kind)
	if err != nil {
		return "", err
	}
	if exclude := keysToIDs(mapped); len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var ids []uint
	if err := q.Order("id").Limit(1).Pluck("id", &ids).Error; err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return strconv.FormatUint(uint64(ids[0]), 10), nil
}

// keysToIDs parses numeric source keys, dropping anything malformed.
func keysToIDs(keys []string) []uint {
	ids := make([]uint, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// CustomerProfile retrieves a customer profile by source key.
func (r *CommerceRepository) CustomerProfile(ctx context.Context, key string) (*domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", key).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Product retrieves a product by source key.
func (r *CommerceRepository) Product(ctx context.Context, key string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", key).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductVariation retrieves a variation by source key.
func (r *CommerceRepository) ProductVariation(ctx context.Context, key string) (*domain.ProductVariation, error) {
	var v domain.ProductVariation
	if err := r.db.WithContext(ctx).First(&v, "id = ?", key).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Order retrieves an order by source key with its lines, adjustments, and
// both customer profiles preloaded.
func (r *CommerceRepository) Order(ctx context.Context, key string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Adjustments", func(db *gorm.DB) *gorm.DB { return db.Order("order_adjustments.id") }).
		Preload("BillingProfile").
		Preload("ShippingProfile").
		First(&o, "id = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Payment retrieves a payment by source key with its order preloaded.
func (r *CommerceRepository) Payment(ctx context.Context, key string) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		First(&p, "id = ?", key).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
