package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/internal/catalog"
	"github.com/angelmondragon/vitrine-backend/internal/shipping"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/db"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNumberIndex = "idx_orders_store_number"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type linePricer interface {
	PriceLines(ctx context.Context, storeID uuid.UUID, lines []catalog.LineInput) (*catalog.PricedCart, error)
}

type shippingQuoter interface {
	Quote(ctx context.Context, storeID uuid.UUID, input shipping.QuoteInput) (*shipping.QuoteResult, error)
	Method(ctx context.Context, storeID uuid.UUID, methodID string) (*shipping.Method, bool, error)
}

type storeLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, error)
}

// Service covers storefront checkout and dashboard order management.
type Service interface {
	Submit(ctx context.Context, storeID uuid.UUID, input SubmitInput) (*SubmitResult, error)
	Quote(ctx context.Context, storeID uuid.UUID, input QuoteInput) (*QuoteResult, error)
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, storeID, orderID uuid.UUID, input UpdateInput) (*OrderDTO, error)
}

type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Catalog  linePricer
	Shipping shippingQuoter
	Stores   storeLookup
	Handoff  Handoff
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  linePricer
	shipping shippingQuoter
	stores   storeLookup
	handoff  Handoff
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog required")
	case params.Shipping == nil:
		return nil, fmt.Errorf("shipping service required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store lookup required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		catalog:  params.Catalog,
		shipping: params.Shipping,
		stores:   params.Stores,
		handoff:  params.Handoff,
		logg:     params.Logger,
	}, nil
}

func (s *service) Submit(ctx context.Context, storeID uuid.UUID, input SubmitInput) (*SubmitResult, error) {
	store, err := s.stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	customer, err := cleanCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	address, err := cleanAddress(input.Address)
	if err != nil {
		return nil, err
	}

	cart, err := s.catalog.PriceLines(ctx, storeID, input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		StoreID:           storeID,
		CustomerName:      customer.Name,
		CustomerPhone:     customer.Phone,
		CustomerEmail:     customer.Email,
		CustomerDocument:  customer.Document,
		AddressStreet:     address.Street,
		AddressNumber:     address.Number,
		AddressComplement: address.Complement,
		AddressDistrict:   address.District,
		AddressCity:       address.City,
		AddressState:      address.State,
		AddressPostalCode: address.PostalCode,
		Subtotal:          cart.Subtotal,
		ShippingCost:      decimal.Zero,
		Discount:          decimal.Zero,
		Status:            enums.OrderStatusPending,
		Notes:             trimmedOrNil(input.Notes),
		Items:             cart.Items,
	}

	if methodID := strings.TrimSpace(input.ShippingMethodID); methodID != "" {
		option, err := s.chosenOption(ctx, storeID, address.PostalCode, cart, methodID)
		if err != nil {
			return nil, err
		}
		name := option.Name
		order.ShippingMethodID = &methodID
		order.ShippingMethodName = &name
		order.ShippingCost = option.Price
	}
	order.Total = order.Subtotal.Add(order.ShippingCost).Round(2)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextNumber(ctx, storeID)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		return repo.Create(ctx, order)
	})
	if err != nil {
		if db.IsUniqueViolation(err, orderNumberIndex) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number taken, please resubmit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("storefront order #%d submitted", order.OrderNumber))

	dto := FromModel(*order)
	return &SubmitResult{Order: dto, WhatsAppURL: s.handoff.Link(store.WhatsAppPhone, dto)}, nil
}

// Quote prices the cart from the catalog and lists every shipping option for
// the destination, the same way Submit will evaluate them.
func (s *service) Quote(ctx context.Context, storeID uuid.UUID, input QuoteInput) (*QuoteResult, error) {
	cart, err := s.catalog.PriceLines(ctx, storeID, input.Items)
	if err != nil {
		return nil, err
	}
	quote, err := s.shipping.Quote(ctx, storeID, shipping.QuoteInput{
		PostalCode: input.PostalCode,
		Subtotal:   cart.Subtotal,
		Parcels:    parcelsFor(cart.Items),
	})
	if err != nil {
		return nil, err
	}
	return &QuoteResult{Subtotal: cart.Subtotal, Shipping: quote}, nil
}

// chosenOption re-quotes the destination and returns the option the shopper
// picked. Options that are no longer offered are rejected.
func (s *service) chosenOption(ctx context.Context, storeID uuid.UUID, postalCode string, cart *catalog.PricedCart, methodID string) (*shipping.QuoteOption, error) {
	if postalCode == "" {
		return nil, pkgerrors.Field("address.postal_code", "required")
	}
	quote, err := s.shipping.Quote(ctx, storeID, shipping.QuoteInput{
		PostalCode: postalCode,
		Subtotal:   cart.Subtotal,
		Parcels:    parcelsFor(cart.Items),
	})
	if err != nil {
		return nil, err
	}
	for i := range quote.Options {
		if quote.Options[i].ID == methodID {
			return &quote.Options[i], nil
		}
	}
	return nil, pkgerrors.Field("shipping_method_id", "not available for this address")
}

func parcelsFor(items []models.OrderItem) []carrier.Parcel {
	parcels := make([]carrier.Parcel, 0, len(items))
	for i, item := range items {
		parcels = append(parcels, carrier.Parcel{
			ID:             strconv.Itoa(i + 1),
			WeightKg:       item.WeightKg.Decimal,
			HeightCm:       item.HeightCm.Decimal,
			WidthCm:        item.WidthCm.Decimal,
			LengthCm:       item.LengthCm.Decimal,
			Quantity:       item.Quantity,
			InsuranceValue: item.UnitPrice,
		})
	}
	return parcels
}

func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.Find(ctx, storeID, orderID)
	if err != nil {
		return nil, lookupError(err)
	}
	dto := FromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, params pagination.Params, filter ListFilter) (*ListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Field("cursor", "invalid")
	}
	result, err := s.repo.List(ctx, storeID, params, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return result, nil
}

// Update applies a dashboard edit. Order details and item replacement commit
// together; shipment columns are never written here.
func (s *service) Update(ctx context.Context, storeID, orderID uuid.UUID, input UpdateInput) (*OrderDTO, error) {
	order, err := s.repo.Find(ctx, storeID, orderID)
	if err != nil {
		return nil, lookupError(err)
	}

	if input.Customer != nil {
		customer, err := cleanCustomer(*input.Customer)
		if err != nil {
			return nil, err
		}
		order.CustomerName = customer.Name
		order.CustomerPhone = customer.Phone
		order.CustomerEmail = customer.Email
		order.CustomerDocument = customer.Document
	}
	if input.Address != nil {
		address, err := cleanAddress(*input.Address)
		if err != nil {
			return nil, err
		}
		order.AddressStreet = address.Street
		order.AddressNumber = address.Number
		order.AddressComplement = address.Complement
		order.AddressDistrict = address.District
		order.AddressCity = address.City
		order.AddressState = address.State
		order.AddressPostalCode = address.PostalCode
	}
	if input.Status != nil {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(*input.Status))
		if err != nil {
			return nil, pkgerrors.Field("status", "invalid")
		}
		order.Status = status
	}
	if input.Notes != nil {
		order.Notes = trimmedOrNil(input.Notes)
	}

	var items []models.OrderItem
	if input.Items != nil {
		items, err = editedItems(input.Items)
		if err != nil {
			return nil, err
		}
		order.Subtotal = decimal.Zero
		for _, item := range items {
			order.Subtotal = order.Subtotal.Add(item.Total)
		}
	}

	if input.ShippingMethodID != nil {
		if err := s.applyMethod(ctx, order, strings.TrimSpace(*input.ShippingMethodID), true); err != nil {
			return nil, err
		}
	} else if input.Items != nil && order.ShippingMethodID != nil {
		// keep manual prices in step with the new subtotal
		if err := s.applyMethod(ctx, order, *order.ShippingMethodID, false); err != nil {
			return nil, err
		}
	}
	if input.ShippingCost != nil {
		if input.ShippingCost.IsNegative() {
			return nil, pkgerrors.Field("shipping_cost", "must not be negative")
		}
		order.ShippingCost = input.ShippingCost.Round(2)
	}
	if input.Discount != nil {
		if input.Discount.IsNegative() {
			return nil, pkgerrors.Field("discount", "must not be negative")
		}
		order.Discount = input.Discount.Round(2)
	}
	order.Subtotal = order.Subtotal.Round(2)
	order.Total = order.Subtotal.Add(order.ShippingCost).Sub(order.Discount).Round(2)
	if order.Total.IsNegative() {
		return nil, pkgerrors.Field("discount", "exceeds order amount")
	}
	order.UpdatedAt = time.Now().UTC()

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateDetails(ctx, order); err != nil {
			return err
		}
		if input.Items != nil {
			return repo.ReplaceItems(ctx, order.ID, items)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, lookupError(err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	return s.Get(ctx, storeID, orderID)
}

// applyMethod binds the order to a shipping method. Manual methods are
// repriced with Cost; carrier prices stay as quoted. An empty id clears it.
// When strict is false a method that no longer exists is left alone.
func (s *service) applyMethod(ctx context.Context, order *models.Order, methodID string, strict bool) error {
	if methodID == "" {
		order.ShippingMethodID = nil
		order.ShippingMethodName = nil
		order.ShippingCost = decimal.Zero
		return nil
	}
	method, ok, err := s.shipping.Method(ctx, order.StoreID, methodID)
	if err != nil {
		return err
	}
	if !ok {
		if !strict {
			return nil
		}
		return pkgerrors.Field("shipping_method_id", "not found")
	}
	order.ShippingMethodID = &methodID
	if name := method.DisplayName(); name != "" {
		order.ShippingMethodName = &name
	}
	if method.Manual != nil {
		order.ShippingCost = shipping.Cost(*method.Manual, order.Subtotal)
	}
	return nil
}

func editedItems(inputs []ItemInput) ([]models.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.Field("items", "required")
	}
	items := make([]models.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].name", i), "required")
		}
		if in.Quantity <= 0 {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, pkgerrors.Field(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
		unit := in.UnitPrice.Round(2)
		items = append(items, models.OrderItem{
			ProductID: in.ProductID,
			VariantID: in.VariantID,
			Name:      name,
			Quantity:  in.Quantity,
			UnitPrice: unit,
			Total:     unit.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
		})
	}
	return items, nil
}

func cleanCustomer(in CustomerInput) (CustomerInput, error) {
	out := CustomerInput{
		Name:     strings.TrimSpace(in.Name),
		Phone:    strings.TrimSpace(in.Phone),
		Email:    trimmedOrNil(in.Email),
		Document: trimmedOrNil(in.Document),
	}
	if out.Name == "" {
		return out, pkgerrors.Field("customer.name", "required")
	}
	if len(digits(out.Phone)) < 10 {
		return out, pkgerrors.Field("customer.phone", "invalid")
	}
	return out, nil
}

// cleanAddress normalizes the postal code. An empty code is allowed for
// orders picked up at the store.
func cleanAddress(in AddressInput) (AddressInput, error) {
	out := AddressInput{
		Street:     strings.TrimSpace(in.Street),
		Number:     strings.TrimSpace(in.Number),
		Complement: trimmedOrNil(in.Complement),
		District:   strings.TrimSpace(in.District),
		City:       strings.TrimSpace(in.City),
		State:      strings.ToUpper(strings.TrimSpace(in.State)),
	}
	if raw := strings.TrimSpace(in.PostalCode); raw != "" {
		code, ok := cep.Normalize(raw)
		if !ok {
			return out, pkgerrors.Field("address.postal_code", "invalid")
		}
		out.PostalCode = code
	}
	return out, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
