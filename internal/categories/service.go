package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/db"
	"github.com/angelmondragon/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const siblingSlugIndex = "categories_store_parent_slug_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the category tree of a store.
type Service interface {
	Tree(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*Node, error)
	List(ctx context.Context, storeID uuid.UUID) ([]Node, error)
	Resolve(ctx context.Context, storeID uuid.UUID, slugs []string) (*Node, []uuid.UUID, error)
	Create(ctx context.Context, storeID uuid.UUID, input Input) (*Node, error)
	Update(ctx context.Context, storeID, id uuid.UUID, input Input) (*Node, error)
	Delete(ctx context.Context, storeID, id uuid.UUID) error
}

// Input creates or replaces a category. An empty Slug is derived from Name.
type Input struct {
	ParentID     *uuid.UUID `json:"parent_id"`
	Name         string     `json:"name" validate:"required"`
	Slug         string     `json:"slug"`
	Description  *string    `json:"description"`
	ImageURL     *string    `json:"image_url"`
	Active       *bool      `json:"active"`
	DisplayOrder int        `json:"display_order"`
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func nodeFromModel(m models.Category) Node {
	return Node{
		ID:           m.ID,
		ParentID:     m.ParentID,
		Name:         m.Name,
		Slug:         m.Slug,
		Description:  m.Description,
		ImageURL:     m.ImageURL,
		Active:       m.Active,
		DisplayOrder: m.DisplayOrder,
	}
}

func (s *service) load(ctx context.Context, storeID uuid.UUID) ([]models.Category, error) {
	rows, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

// Tree builds the store forest. With activeOnly, an inactive node hides its
// whole subtree.
func (s *service) Tree(ctx context.Context, storeID uuid.UUID, activeOnly bool) ([]*Node, error) {
	rows, err := s.load(ctx, storeID)
	if err != nil {
		return nil, err
	}
	flat := make([]Node, 0, len(rows))
	for _, row := range rows {
		flat = append(flat, nodeFromModel(row))
	}
	forest := BuildTree(flat)
	if activeOnly {
		forest = pruneInactive(forest)
	}
	return forest, nil
}

func pruneInactive(list []*Node) []*Node {
	out := make([]*Node, 0, len(list))
	for _, n := range list {
		if !n.Active {
			continue
		}
		n.Children = pruneInactive(n.Children)
		out = append(out, n)
	}
	return out
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]Node, error) {
	forest, err := s.Tree(ctx, storeID, false)
	if err != nil {
		return nil, err
	}
	return Flatten(forest), nil
}

// Resolve maps a storefront slug path to its node and the ids of the whole
// subtree, for product listing.
func (s *service) Resolve(ctx context.Context, storeID uuid.UUID, slugs []string) (*Node, []uuid.UUID, error) {
	forest, err := s.Tree(ctx, storeID, true)
	if err != nil {
		return nil, nil, err
	}
	node, ok := ResolvePath(forest, slugs)
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return node, SubtreeIDs(forest, node.ID), nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input Input) (*Node, error) {
	row := &models.Category{StoreID: storeID, Active: true}
	if err := s.apply(ctx, row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, writeError(err, "create category")
	}
	node := nodeFromModel(*row)
	return &node, nil
}

func (s *service) Update(ctx context.Context, storeID, id uuid.UUID, input Input) (*Node, error) {
	row, err := s.repo.Find(ctx, storeID, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if err := s.apply(ctx, row, input); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, lookupError(err)
		}
		return nil, writeError(err, "update category")
	}
	node := nodeFromModel(*row)
	return &node, nil
}

// apply validates input against the store's current tree and copies it onto row.
func (s *service) apply(ctx context.Context, row *models.Category, input Input) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.Field("name", "required")
	}
	slugSource := input.Slug
	if strings.TrimSpace(slugSource) == "" {
		slugSource = name
	}
	slug := Slugify(slugSource)
	if slug == "" {
		return pkgerrors.Field("slug", "invalid")
	}

	if input.ParentID != nil {
		if row.ID != uuid.Nil && *input.ParentID == row.ID {
			return pkgerrors.Field("parent_id", "a category cannot be its own parent")
		}
		if _, err := s.repo.Find(ctx, row.StoreID, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Field("parent_id", "not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent category")
		}
		if row.ID != uuid.Nil {
			forest, err := s.Tree(ctx, row.StoreID, false)
			if err != nil {
				return err
			}
			for _, d := range Descendants(forest, row.ID) {
				if d == *input.ParentID {
					return pkgerrors.Field("parent_id", "cannot move a category under its own descendant")
				}
			}
		}
	}

	taken, err := s.repo.SlugTaken(ctx, row.StoreID, input.ParentID, slug, row.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category slug")
	}
	if taken {
		return pkgerrors.Field("slug", "already used by a sibling")
	}

	row.ParentID = input.ParentID
	row.Name = name
	row.Slug = slug
	row.Description = input.Description
	row.ImageURL = input.ImageURL
	row.DisplayOrder = input.DisplayOrder
	if input.Active != nil {
		row.Active = *input.Active
	}
	return nil
}

// Delete removes the node. Its children become roots and its products lose
// the category, all in one transaction.
func (s *service) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DetachChildren(ctx, storeID, id); err != nil {
			return err
		}
		if err := repo.ClearProducts(ctx, storeID, id); err != nil {
			return err
		}
		n, err := repo.Delete(ctx, storeID, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lookupError(err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete category")
	}
	return nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
}

func writeError(err error, op string) error {
	if db.IsUniqueViolation(err, siblingSlugIndex) {
		return pkgerrors.Field("slug", "already used by a sibling")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
