package storefront

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vitrine-backend/api/middleware"
	"github.com/angelmondragon/vitrine-backend/api/responses"
	"github.com/angelmondragon/vitrine-backend/api/validators"
	"github.com/angelmondragon/vitrine-backend/internal/catalog"
	"github.com/angelmondragon/vitrine-backend/internal/categories"
	"github.com/angelmondragon/vitrine-backend/internal/orders"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
)

type categoryReader interface {
	Tree(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*categories.Node, error)
	Resolve(ctx context.Context, storeID uuid.UUID, slugs []string) (*categories.Node, []uuid.UUID, error)
}

type productLister interface {
	ListByCategories(ctx context.Context, storeID uuid.UUID, categoryIDs []uuid.UUID) ([]catalog.ProductDTO, error)
}

type orderPlacer interface {
	Quote(ctx context.Context, storeID uuid.UUID, input orders.QuoteInput) (*orders.QuoteResult, error)
	Submit(ctx context.Context, storeID uuid.UUID, input orders.SubmitInput) (*orders.SubmitResult, error)
}

// CategoryPage is a category with every active product of its subtree.
type CategoryPage struct {
	Category *categories.Node     `json:"category"`
	Products []catalog.ProductDTO `json:"products"`
}

// Categories returns the active category tree of the host's store.
func Categories(svc categoryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tree, err := svc.Tree(r.Context(), storeID, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}

// CategoryByPath resolves /categories/<slug>/<child-slug>/... and lists the
// products of the resolved node and all of its descendants.
func CategoryByPath(svc categoryReader, products productLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		node, ids, err := svc.Resolve(r.Context(), storeID, splitPath(chi.URLParam(r, "*")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := products.ListByCategories(r.Context(), storeID, ids)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, CategoryPage{Category: node, Products: list})
	}
}

func splitPath(raw string) []string {
	parts := strings.Split(raw, "/")
	slugs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			slugs = append(slugs, p)
		}
	}
	return slugs
}

// Quote lists the shipping options for the shopper's cart and destination.
func Quote(svc orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input orders.QuoteInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// SubmitOrder records the order and answers with the WhatsApp hand-off link.
func SubmitOrder(svc orderPlacer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := middleware.StoreUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input orders.SubmitInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Submit(r.Context(), storeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
