package carrier

import (
	"context"

	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/google/uuid"
)

// API is the subset of the Melhor Envio client the adapter drives.
type API interface {
	Calculate(ctx context.Context, req melhorenvio.CalculateRequest) ([]melhorenvio.Quote, error)
	AddToCart(ctx context.Context, req melhorenvio.CartRequest) (*melhorenvio.CartItem, error)
	Checkout(ctx context.Context, shipmentIDs ...string) (*melhorenvio.Purchase, error)
	Generate(ctx context.Context, shipmentIDs ...string) (map[string]melhorenvio.GenerateResult, error)
	Print(ctx context.Context, shipmentIDs ...string) (string, error)
	Tracking(ctx context.Context, shipmentIDs ...string) (map[string]melhorenvio.Tracking, error)
	Cancel(ctx context.Context, shipmentID, reason string) (map[string]melhorenvio.CancelResult, error)
	ListAddresses(ctx context.Context) ([]melhorenvio.Address, error)
	GetAddress(ctx context.Context, id string) (*melhorenvio.Address, error)
	ListServices(ctx context.Context) ([]melhorenvio.Service, error)
}

// ClientSource builds an API client for one tenant token.
type ClientSource func(token string, sandbox bool) (API, error)

// FromFactory adapts a melhorenvio.Factory into a ClientSource.
func FromFactory(f *melhorenvio.Factory) ClientSource {
	return func(token string, sandbox bool) (API, error) {
		c, err := f.Client(token, sandbox)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type settingsLoader interface {
	Load(ctx context.Context, storeID uuid.UUID) (*stores.CarrierSettings, error)
}

type storeLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, error)
}

type productLookup interface {
	ProductsByID(ctx context.Context, storeID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}
