package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rtavares/movelaria-backend/pkg/config"
	"github.com/rtavares/movelaria-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "movelaria-test",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: userID,
		Role:   enums.RoleSeller,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != enums.RoleSeller {
		t.Fatalf("role = %s", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("jti should be populated")
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.Role("gerente"),
	}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestCapabilityByRole(t *testing.T) {
	cases := []struct {
		role enums.Role
		want bool
	}{
		{enums.RoleAdmin, true},
		{enums.RoleOperator, true},
		{enums.RoleSeller, false},
	}
	for _, tc := range cases {
		claims := &AccessTokenClaims{Role: tc.role}
		if got := claims.CanSelectSalesperson(); got != tc.want {
			t.Fatalf("CanSelectSalesperson(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}
}
