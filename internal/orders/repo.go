package orders

import (
	"context"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextNumber(ctx context.Context, storeID uuid.UUID) (int64, error)
	Create(ctx context.Context, order *models.Order) error
	Find(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filter ListFilter) (*ListResult, error)
	UpdateDetails(ctx context.Context, order *models.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextNumber(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var last int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("store_id = ?", storeID).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Find(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND store_id = ?", orderID, storeID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filter ListFilter) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("store_id = ?", storeID)
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(customer_name) LIKE ? OR customer_phone LIKE ? OR CAST(order_number AS TEXT) = ?)", pattern, pattern, search)
	}
	if cursor != nil {
		qb = qb.Where("order_number < ?", cursor.Sequence)
	}

	var rows []models.Order
	if err := qb.Order("order_number DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{Sequence: o.OrderNumber, ID: o.ID}
	})
	result := &ListResult{Orders: make([]Summary, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Orders = append(result.Orders, summaryFromModel(row))
	}
	return result, nil
}

// UpdateDetails writes the editable columns. Shipment columns belong to
// fulfillment and are always omitted.
func (r *repository) UpdateDetails(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND store_id = ?", order.ID, order.StoreID).
		Omit(models.ShipmentColumns...).
		Updates(map[string]any{
			"customer_name":        order.CustomerName,
			"customer_phone":       order.CustomerPhone,
			"customer_email":       order.CustomerEmail,
			"customer_document":    order.CustomerDocument,
			"address_street":       order.AddressStreet,
			"address_number":       order.AddressNumber,
			"address_complement":   order.AddressComplement,
			"address_district":     order.AddressDistrict,
			"address_city":         order.AddressCity,
			"address_state":        order.AddressState,
			"address_postal_code":  order.AddressPostalCode,
			"subtotal":             order.Subtotal,
			"shipping_cost":        order.ShippingCost,
			"discount":             order.Discount,
			"total":                order.Total,
			"shipping_method_id":   order.ShippingMethodID,
			"shipping_method_name": order.ShippingMethodName,
			"status":               order.Status,
			"notes":                order.Notes,
			"updated_at":           order.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}
