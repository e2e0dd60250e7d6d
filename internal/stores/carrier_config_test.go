package stores

import (
	"context"
	"testing"

	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/angelmondragon/vitrine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/angelmondragon/vitrine-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCarrierConfigService(t *testing.T) (CarrierConfigService, Repository) {
	t.Helper()
	sealer, err := security.NewSealer(config.SecretsConfig{Key: "test-secrets-key-0123456789"})
	require.NoError(t, err)
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewCarrierConfigService(repo, sealer)
	require.NoError(t, err)
	return svc, repo
}

func TestNewCarrierConfigServiceRequiresDeps(t *testing.T) {
	if _, err := NewCarrierConfigService(nil, nil); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewCarrierConfigService(NewRepository(nil), nil); err == nil {
		t.Fatal("expected error without sealer")
	}
}

func TestLoadWithoutRowIsDisabledWithDefaults(t *testing.T) {
	svc, _ := newCarrierConfigService(t)
	storeID := uuid.New()

	settings, err := svc.Load(context.Background(), storeID)
	require.NoError(t, err)
	assert.False(t, settings.Configured())
	assert.True(t, settings.Sandbox)
	assert.True(t, settings.Defaults.WeightKg.Equal(decimal.RequireFromString("0.3")))
	assert.True(t, settings.Defaults.LengthCm.Equal(decimal.NewFromInt(16)))

	view, err := svc.Get(context.Background(), storeID)
	require.NoError(t, err)
	assert.False(t, view.TokenSet)
}

func TestSaveSealsTokenAndLoadOpensIt(t *testing.T) {
	svc, repo := newCarrierConfigService(t)
	ctx := context.Background()
	storeID := uuid.New()

	view, err := svc.Save(ctx, storeID, CarrierSettingsInput{
		Enabled:           true,
		Sandbox:           false,
		Token:             strPtr(" me-token "),
		OriginPostalCode:  "01310-100",
		Defaults:          Parcel{WeightKg: decimal.RequireFromString("1.5")},
		OriginAddressID:   strPtr("  "),
		AllowedServiceIDs: []int64{2, 1, 2},
	})
	require.NoError(t, err)
	assert.True(t, view.TokenSet)
	assert.Equal(t, "01310100", view.OriginPostalCode)
	assert.Nil(t, view.OriginAddressID)
	assert.Equal(t, []int64{2, 1}, view.AllowedServiceIDs)

	row, err := repo.FindCarrierConfig(ctx, storeID)
	require.NoError(t, err)
	assert.NotContains(t, row.TokenSealed, "me-token")
	assert.NotEmpty(t, row.TokenSealed)

	settings, err := svc.Load(ctx, storeID)
	require.NoError(t, err)
	assert.True(t, settings.Configured())
	assert.Equal(t, "me-token", settings.Token)
	assert.False(t, settings.Sandbox)
	assert.True(t, settings.Defaults.WeightKg.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, settings.Defaults.HeightCm.Equal(decimal.NewFromInt(2)))
	assert.True(t, settings.AllowsService(1))
	assert.False(t, settings.AllowsService(3))

	// a nil token keeps the stored credential
	_, err = svc.Save(ctx, storeID, CarrierSettingsInput{Enabled: true, OriginPostalCode: "01310100"})
	require.NoError(t, err)
	settings, err = svc.Load(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, "me-token", settings.Token)
	assert.True(t, settings.AllowsService(3))
}

func TestSaveValidation(t *testing.T) {
	svc, _ := newCarrierConfigService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CarrierSettingsInput
		field string
	}{
		{name: "enabled without token", input: CarrierSettingsInput{Enabled: true, OriginPostalCode: "01310100"}, field: "token"},
		{name: "enabled without origin", input: CarrierSettingsInput{Enabled: true, Token: strPtr("tok")}, field: "origin_postal_code"},
		{name: "malformed origin", input: CarrierSettingsInput{OriginPostalCode: "12-3"}, field: "origin_postal_code"},
		{name: "negative default", input: CarrierSettingsInput{Defaults: Parcel{WidthCm: decimal.NewFromInt(-1)}}, field: "defaults"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, uuid.New(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			details, _ := typed.Details().(map[string]string)
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected field %s in details %v", tc.field, typed.Details())
			}
		})
	}
}

func TestLoadRejectsTokenSealedForAnotherStore(t *testing.T) {
	svc, repo := newCarrierConfigService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, err := svc.Save(ctx, a, CarrierSettingsInput{Token: strPtr("tok")})
	require.NoError(t, err)
	row, err := repo.FindCarrierConfig(ctx, a)
	require.NoError(t, err)

	require.NoError(t, repo.SaveCarrierConfig(ctx, &models.CarrierConfig{StoreID: b, TokenSealed: row.TokenSealed}))
	if _, err := svc.Load(ctx, b); !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error for foreign token, got %v", err)
	}
}
