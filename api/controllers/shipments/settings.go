package shipments

import (
	"net/http"

	"github.com/angelmondragon/vitrine-backend/api/middleware"
	"github.com/angelmondragon/vitrine-backend/api/responses"
	"github.com/angelmondragon/vitrine-backend/api/validators"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
)

// settingsRequest replaces the store's carrier config. Omitting token keeps
// the stored one.
type settingsRequest struct {
	Enabled           bool          `json:"enabled"`
	Sandbox           bool          `json:"sandbox"`
	Token             *string       `json:"token"`
	OriginPostalCode  string        `json:"origin_postal_code"`
	Defaults          stores.Parcel `json:"defaults"`
	OriginAddressID   *string       `json:"origin_address_id"`
	AllowedServiceIDs []int64       `json:"allowed_service_ids"`
}

func SettingsGet(svc stores.CarrierConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.Get(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func SettingsUpdate(svc stores.CarrierConfigService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req settingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.Save(r.Context(), storeID, stores.CarrierSettingsInput{
			Enabled:           req.Enabled,
			Sandbox:           req.Sandbox,
			Token:             req.Token,
			OriginPostalCode:  req.OriginPostalCode,
			Defaults:          req.Defaults,
			OriginAddressID:   req.OriginAddressID,
			AllowedServiceIDs: req.AllowedServiceIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"enabled": settings.Enabled, "sandbox": settings.Sandbox})
			logg.Info(ctx, "carrier settings saved")
		}
		responses.WriteSuccess(w, settings)
	}
}
