package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. Tokens
// are normally minted by the external auth service; this service mints them
// only in tests and local tooling.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.Role
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by console clients.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// CanSelectSalesperson reports whether the bearer may override the order's
// salesperson at finalization.
func (c *AccessTokenClaims) CanSelectSalesperson() bool {
	if c == nil {
		return false
	}
	return c.Role.CanSelectSalesperson()
}
