package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitrine-backend/pkg/errors"
)

type contextKey int

const (
	actorKey contextKey = iota
	storeScopeKey
)

// Actor is the dashboard member behind an authenticated request.
type Actor struct {
	UserID    uuid.UUID
	StoreID   uuid.UUID
	Role      enums.MemberRole
	SessionID string
}

// WithActor stores the member and scopes the request to the member's store.
func WithActor(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, actorKey, actor)
	return WithStoreID(ctx, actor.StoreID.String())
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}

// UserIDFromContext is empty on storefront requests, which have no member.
func UserIDFromContext(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.UserID.String()
	}
	return ""
}

// WithStoreID sets the tenant scope. Storefront requests get it from the host,
// dashboard requests from the access token.
func WithStoreID(ctx context.Context, storeID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, storeScopeKey, storeID)
}

func StoreIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	scope, _ := ctx.Value(storeScopeKey).(string)
	return scope
}

// StoreUUID returns the tenant scope of the request.
func StoreUUID(ctx context.Context) (uuid.UUID, error) {
	raw := StoreIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "store context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid store context")
	}
	return id, nil
}
