package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/vitrine-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
)

type stubResolver struct {
	hosts map[string]uuid.UUID
	seen  string
}

func (s *stubResolver) ResolveHost(_ context.Context, host string) (*stores.StoreDTO, error) {
	s.seen = host
	id, ok := s.hosts[host]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return &stores.StoreDTO{ID: id, Active: true}, nil
}

func TestTenantScopesRequestToResolvedStore(t *testing.T) {
	storeID := uuid.New()
	resolver := &stubResolver{hosts: map[string]uuid.UUID{"loja.vitrine.app": storeID}}

	var got string
	handler := Tenant(resolver, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = StoreIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/storefront/v1/categories", nil)
	req.Host = "loja.vitrine.app"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got != storeID.String() {
		t.Fatalf("expected store %s got %q", storeID, got)
	}
}

func TestTenantPrefersTrustedForwardedHost(t *testing.T) {
	resolver := &stubResolver{hosts: map[string]uuid.UUID{"shop.example.com": uuid.New()}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "internal:8080"
	req.Header.Set("X-Forwarded-Host", "shop.example.com, proxy.local")

	resp := httptest.NewRecorder()
	Tenant(resolver, true, nil)(okHandler()).ServeHTTP(resp, req)
	if resolver.seen != "shop.example.com" {
		t.Fatalf("resolved %q", resolver.seen)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestTenantIgnoresForwardedHostUnlessTrusted(t *testing.T) {
	resolver := &stubResolver{hosts: map[string]uuid.UUID{
		"loja.vitrine.app":  uuid.New(),
		"outra.vitrine.app": uuid.New(),
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "loja.vitrine.app"
	req.Header.Set("X-Forwarded-Host", "outra.vitrine.app")

	resp := httptest.NewRecorder()
	Tenant(resolver, false, nil)(okHandler()).ServeHTTP(resp, req)
	if resolver.seen != "loja.vitrine.app" {
		t.Fatalf("untrusted forwarded host chose %q", resolver.seen)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestTenantUnknownHost(t *testing.T) {
	resolver := &stubResolver{hosts: map[string]uuid.UUID{}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "nobody.vitrine.app"

	resp := httptest.NewRecorder()
	Tenant(resolver, false, nil)(okHandler()).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
