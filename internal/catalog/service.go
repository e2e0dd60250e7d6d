package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is the read side of the product catalog.
type Service interface {
	ProductsByID(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	ListByCategories(ctx context.Context, storeID uuid.UUID, categoryIDs []uuid.UUID) ([]ProductDTO, error)
	PriceLines(ctx context.Context, storeID uuid.UUID, lines []LineInput) (*PricedCart, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ProductsByID(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	rows, err := s.repo.FindByIDs(ctx, storeID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

func (s *service) ListByCategories(ctx context.Context, storeID uuid.UUID, categoryIDs []uuid.UUID) ([]ProductDTO, error) {
	rows, err := s.repo.ListActiveByCategories(ctx, storeID, categoryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

// PriceLines prices each line from the stored catalog, never from client
// input. Inactive products are rejected. Dimensions are snapshotted onto the
// item, variant first.
func (s *service) PriceLines(ctx context.Context, storeID uuid.UUID, lines []LineInput) (*PricedCart, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.Field("items", "required")
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		ids = append(ids, line.ProductID)
	}
	products, err := s.ProductsByID(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}

	cart := &PricedCart{Items: make([]models.OrderItem, 0, len(lines)), Subtotal: decimal.Zero}
	for i, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.Active {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].product_id", i), "not found")
		}
		productID := product.ID
		item := models.OrderItem{
			ProductID: &productID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			UnitPrice: product.Price.Round(2),
			WeightKg:  product.WeightKg,
			HeightCm:  product.HeightCm,
			WidthCm:   product.WidthCm,
			LengthCm:  product.LengthCm,
		}
		if line.VariantID != nil {
			variant, found := findVariant(product, *line.VariantID)
			if !found {
				return nil, pkgerrors.Field(fmt.Sprintf("items[%d].variant_id", i), "not found")
			}
			variantID := variant.ID
			item.VariantID = &variantID
			item.Name = product.Name + " - " + variant.Name
			item.UnitPrice = variantPrice(product, variant)
			item.WeightKg = prefer(variant.WeightKg, item.WeightKg)
			item.HeightCm = prefer(variant.HeightCm, item.HeightCm)
			item.WidthCm = prefer(variant.WidthCm, item.WidthCm)
			item.LengthCm = prefer(variant.LengthCm, item.LengthCm)
		}
		item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		cart.Subtotal = cart.Subtotal.Add(item.Total)
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func findVariant(p models.Product, id uuid.UUID) (models.ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return models.ProductVariant{}, false
}

func prefer(v, fallback decimal.NullDecimal) decimal.NullDecimal {
	if v.Valid && v.Decimal.IsPositive() {
		return v
	}
	return fallback
}
