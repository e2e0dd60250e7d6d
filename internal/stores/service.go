package stores

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes tenant lookups.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	ResolveHost(ctx context.Context, host string) (*StoreDTO, error)
}

type service struct {
	repo       Repository
	baseDomain string
}

// NewService builds a store service. baseDomain is the platform domain under
// which stores are served as <slug>.<baseDomain>.
func NewService(repo Repository, baseDomain string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{
		repo:       repo,
		baseDomain: strings.Trim(strings.ToLower(strings.TrimSpace(baseDomain)), "."),
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	return activeStore(store, err)
}

// ResolveHost maps a request host to its store, either through a custom
// domain or a platform subdomain.
func (s *service) ResolveHost(ctx context.Context, host string) (*StoreDTO, error) {
	name := normalizeHost(host)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	if slug, ok := s.subdomainSlug(name); ok {
		store, err := s.repo.FindBySlug(ctx, slug)
		return activeStore(store, err)
	}
	store, err := s.repo.FindByCustomDomain(ctx, name)
	return activeStore(store, err)
}

func (s *service) subdomainSlug(host string) (string, bool) {
	if s.baseDomain == "" {
		return "", false
	}
	slug, found := strings.CutSuffix(host, "."+s.baseDomain)
	if !found || slug == "" || strings.Contains(slug, ".") {
		return "", false
	}
	return slug, true
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}

func activeStore(store *models.Store, err error) (*StoreDTO, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if !store.Active {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return FromModel(store), nil
}
