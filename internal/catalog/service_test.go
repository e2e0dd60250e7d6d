package catalog

import (
	"context"
	"testing"

	"github.com/angelmondragon/vitrine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func nullDec(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func seedProduct(t *testing.T, conn *gorm.DB, p *models.Product) *models.Product {
	t.Helper()
	require.NoError(t, conn.Create(p).Error)
	return p
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error without repository")
	}
}

func TestListByCategoriesReturnsActiveProducts(t *testing.T) {
	svc, conn := newCatalog(t)
	ctx := context.Background()
	storeID := uuid.New()
	cakes := uuid.New()
	sweets := uuid.New()

	seedProduct(t, conn, &models.Product{StoreID: storeID, CategoryID: &cakes, Name: "Bolo de cenoura", Slug: "bolo-cenoura", Price: dec("45"), Active: true})
	seedProduct(t, conn, &models.Product{StoreID: storeID, CategoryID: &sweets, Name: "Brigadeiro", Slug: "brigadeiro", Price: dec("3.5"), Active: true})
	seedProduct(t, conn, &models.Product{StoreID: storeID, CategoryID: &cakes, Name: "Bolo antigo", Slug: "bolo-antigo", Price: dec("40"), Active: false})
	seedProduct(t, conn, &models.Product{StoreID: uuid.New(), CategoryID: &cakes, Name: "Outro", Slug: "outro", Price: dec("1"), Active: true})

	list, err := svc.ListByCategories(ctx, storeID, []uuid.UUID{cakes, sweets})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bolo de cenoura", list[0].Name)
	assert.Equal(t, "Brigadeiro", list[1].Name)
	assert.True(t, list[1].Price.Equal(dec("3.5")))

	empty, err := svc.ListByCategories(ctx, storeID, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPriceLinesUsesCatalogPrices(t *testing.T) {
	svc, conn := newCatalog(t)
	ctx := context.Background()
	storeID := uuid.New()

	cake := seedProduct(t, conn, &models.Product{
		StoreID: storeID, Name: "Bolo", Slug: "bolo", Price: dec("50"), Active: true,
		WeightKg: nullDec("1.2"), HeightCm: nullDec("10"), WidthCm: nullDec("20"), LengthCm: nullDec("20"),
	})
	big := models.ProductVariant{ProductID: cake.ID, Name: "Grande", Price: nullDec("80"), WeightKg: nullDec("2")}
	small := models.ProductVariant{ProductID: cake.ID, Name: "Pequeno"}
	require.NoError(t, conn.Create(&big).Error)
	require.NoError(t, conn.Create(&small).Error)

	cart, err := svc.PriceLines(ctx, storeID, []LineInput{
		{ProductID: cake.ID, Quantity: 2},
		{ProductID: cake.ID, VariantID: &big.ID, Quantity: 1},
		{ProductID: cake.ID, VariantID: &small.ID, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 3)

	assert.True(t, cart.Items[0].Total.Equal(dec("100")))
	assert.Equal(t, "Bolo - Grande", cart.Items[1].Name)
	assert.True(t, cart.Items[1].UnitPrice.Equal(dec("80")))
	assert.True(t, cart.Items[1].WeightKg.Decimal.Equal(dec("2")))
	assert.True(t, cart.Items[1].HeightCm.Decimal.Equal(dec("10")))
	assert.True(t, cart.Items[2].UnitPrice.Equal(dec("50")))
	assert.True(t, cart.Subtotal.Equal(dec("330")))
}

func TestPriceLinesRejectsBadLines(t *testing.T) {
	svc, conn := newCatalog(t)
	ctx := context.Background()
	storeID := uuid.New()

	active := seedProduct(t, conn, &models.Product{StoreID: storeID, Name: "A", Slug: "a", Price: dec("1"), Active: true})
	inactive := seedProduct(t, conn, &models.Product{StoreID: storeID, Name: "B", Slug: "b", Price: dec("1"), Active: false})
	foreign := seedProduct(t, conn, &models.Product{StoreID: uuid.New(), Name: "C", Slug: "c", Price: dec("1"), Active: true})
	missingVariant := uuid.New()

	cases := []struct {
		name  string
		lines []LineInput
		field string
	}{
		{"empty", nil, "items"},
		{"zero quantity", []LineInput{{ProductID: active.ID, Quantity: 0}}, "items[0].quantity"},
		{"inactive", []LineInput{{ProductID: active.ID, Quantity: 1}, {ProductID: inactive.ID, Quantity: 1}}, "items[1].product_id"},
		{"other store", []LineInput{{ProductID: foreign.ID, Quantity: 1}}, "items[0].product_id"},
		{"unknown variant", []LineInput{{ProductID: active.ID, VariantID: &missingVariant, Quantity: 1}}, "items[0].variant_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PriceLines(ctx, storeID, tc.lines)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tc.field)
		})
	}
}

func TestProductsByIDPreloadsVariants(t *testing.T) {
	svc, conn := newCatalog(t)
	ctx := context.Background()
	storeID := uuid.New()

	p := seedProduct(t, conn, &models.Product{StoreID: storeID, Name: "A", Slug: "a", Price: dec("1"), Active: true})
	require.NoError(t, conn.Create(&models.ProductVariant{ProductID: p.ID, Name: "V"}).Error)

	found, err := svc.ProductsByID(ctx, storeID, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, found[p.ID].Variants, 1)
}
