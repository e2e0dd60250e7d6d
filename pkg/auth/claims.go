package auth

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/vitrine-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    enums.MemberRole
	JTI     string
}

// AccessTokenClaims is the dashboard JWT. Every token is scoped to one store
// and one member role inside it.
type AccessTokenClaims struct {
	UserID  uuid.UUID        `json:"user_id"`
	StoreID uuid.UUID        `json:"store_id"`
	Role    enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing, and
// before signing when minting.
func (c AccessTokenClaims) Validate() error {
	switch {
	case !c.Role.IsValid():
		return fmt.Errorf("invalid member role %q", c.Role)
	case c.StoreID == uuid.Nil:
		return errors.New("token has no store scope")
	case c.UserID == uuid.Nil:
		return errors.New("token has no user")
	}
	return nil
}
