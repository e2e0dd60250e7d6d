package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/cep"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type tokenSealer interface {
	Seal(plaintext, scope string) (string, error)
	Open(sealed, scope string) (string, error)
}

// CarrierConfigService loads and stores the per-store Melhor Envio settings.
type CarrierConfigService interface {
	Load(ctx context.Context, storeID uuid.UUID) (*CarrierSettings, error)
	Get(ctx context.Context, storeID uuid.UUID) (*CarrierSettingsDTO, error)
	Save(ctx context.Context, storeID uuid.UUID, input CarrierSettingsInput) (*CarrierSettingsDTO, error)
}

type carrierConfigService struct {
	repo   Repository
	sealer tokenSealer
}

func NewCarrierConfigService(repo Repository, sealer tokenSealer) (CarrierConfigService, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("token sealer required")
	}
	return &carrierConfigService{repo: repo, sealer: sealer}, nil
}

func tokenScope(storeID uuid.UUID) string {
	return "carrier_token:" + storeID.String()
}

// Load returns the typed config with defaults applied. A store without a
// config row gets a disabled config rather than an error.
func (s *carrierConfigService) Load(ctx context.Context, storeID uuid.UUID) (*CarrierSettings, error) {
	row, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &CarrierSettings{StoreID: storeID, Sandbox: true, Defaults: DefaultParcel}, nil
	}

	token, err := s.sealer.Open(row.TokenSealed, tokenScope(storeID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open carrier token")
	}
	return settingsFromRow(row, token), nil
}

func (s *carrierConfigService) Get(ctx context.Context, storeID uuid.UUID) (*CarrierSettingsDTO, error) {
	row, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return &CarrierSettingsDTO{Sandbox: true, Defaults: DefaultParcel, AllowedServiceIDs: []int64{}}, nil
	}
	return settingsView(row), nil
}

func (s *carrierConfigService) Save(ctx context.Context, storeID uuid.UUID, input CarrierSettingsInput) (*CarrierSettingsDTO, error) {
	row, err := s.find(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &models.CarrierConfig{StoreID: storeID}
	}

	origin := ""
	if strings.TrimSpace(input.OriginPostalCode) != "" {
		normalized, ok := cep.Normalize(input.OriginPostalCode)
		if !ok {
			return nil, pkgerrors.Field("origin_postal_code", "invalid")
		}
		origin = normalized
	}
	if d := input.Defaults; d.WeightKg.IsNegative() || d.HeightCm.IsNegative() || d.WidthCm.IsNegative() || d.LengthCm.IsNegative() {
		return nil, pkgerrors.Field("defaults", "must not be negative")
	}

	if input.Token != nil {
		sealed, err := s.sealer.Seal(strings.TrimSpace(*input.Token), tokenScope(storeID))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal carrier token")
		}
		row.TokenSealed = sealed
	}
	if input.Enabled {
		if row.TokenSealed == "" {
			return nil, pkgerrors.Field("token", "required")
		}
		if origin == "" {
			return nil, pkgerrors.Field("origin_postal_code", "required")
		}
	}

	row.Enabled = input.Enabled
	row.Sandbox = input.Sandbox
	row.OriginPostalCode = origin
	row.DefaultWeightKg = input.Defaults.WeightKg
	row.DefaultHeightCm = input.Defaults.HeightCm
	row.DefaultWidthCm = input.Defaults.WidthCm
	row.DefaultLengthCm = input.Defaults.LengthCm
	row.OriginAddressID = trimmedOrNil(input.OriginAddressID)
	row.AllowedServiceIDs = pq.StringArray(formatServiceIDs(input.AllowedServiceIDs))

	if err := s.repo.SaveCarrierConfig(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save carrier config")
	}
	return settingsView(row), nil
}

func (s *carrierConfigService) find(ctx context.Context, storeID uuid.UUID) (*models.CarrierConfig, error) {
	row, err := s.repo.FindCarrierConfig(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier config")
	}
	return row, nil
}

func storedParcel(row *models.CarrierConfig) Parcel {
	return Parcel{
		WeightKg: row.DefaultWeightKg,
		HeightCm: row.DefaultHeightCm,
		WidthCm:  row.DefaultWidthCm,
		LengthCm: row.DefaultLengthCm,
	}
}

func settingsFromRow(row *models.CarrierConfig, token string) *CarrierSettings {
	return &CarrierSettings{
		StoreID:           row.StoreID,
		Enabled:           row.Enabled,
		Sandbox:           row.Sandbox,
		Token:             token,
		OriginPostalCode:  strings.TrimSpace(row.OriginPostalCode),
		Defaults:          storedParcel(row).Or(DefaultParcel),
		OriginAddressID:   trimmedOrNil(row.OriginAddressID),
		AllowedServiceIDs: parseServiceIDs(row.AllowedServiceIDs),
	}
}

func settingsView(row *models.CarrierConfig) *CarrierSettingsDTO {
	dto := &CarrierSettingsDTO{
		Enabled:           row.Enabled,
		Sandbox:           row.Sandbox,
		TokenSet:          row.TokenSealed != "",
		OriginPostalCode:  strings.TrimSpace(row.OriginPostalCode),
		Defaults:          storedParcel(row).Or(DefaultParcel),
		OriginAddressID:   trimmedOrNil(row.OriginAddressID),
		AllowedServiceIDs: parseServiceIDs(row.AllowedServiceIDs),
	}
	if !row.UpdatedAt.IsZero() {
		updated := row.UpdatedAt
		dto.UpdatedAt = &updated
	}
	return dto
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
