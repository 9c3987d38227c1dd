package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "https://id.storefront.test/",
		Audience:          "storefront-api",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testConfig()
	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenPayload{
		Subject: "auth0|42",
		Email:   "Ada@Example.com",
		Roles:   []string{"admin"},
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	assert.Equal(t, "ada@example.com", claims.Username())
	assert.Equal(t, "auth0|42", claims.Subject)
	assert.True(t, claims.HasRole("ADMIN"))
	assert.False(t, claims.HasRole("editor"))
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{cfg.Audience}, claims.Audience)
}

func TestUsernameFallsBackToSubject(t *testing.T) {
	claims := &AccessTokenClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|AbC123"}}
	assert.Equal(t, "auth0|AbC123", claims.Username())

	claims.Email = " Ada@Example.COM "
	assert.Equal(t, "ada@example.com", claims.Username())
}

func TestParseRejectsWrongIssuerAudienceAndExpiry(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()
	token, err := MintAccessToken(cfg, now, AccessTokenPayload{Email: "ada@example.com"})
	require.NoError(t, err)

	other := cfg
	other.Issuer = "https://evil.test/"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	other = cfg
	other.Audience = "another-api"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)

	expired, err := MintAccessToken(cfg, now.Add(-2*time.Hour), AccessTokenPayload{Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, expired)
	require.Error(t, err)
}

func TestParseRejectsOtherSigningMethods(t *testing.T) {
	cfg := testConfig()
	claims := AccessTokenClaims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, unsigned)
	require.Error(t, err)
}

func TestMintValidatesConfig(t *testing.T) {
	_, err := MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{Email: "a@b.c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = MintAccessToken(config.JWTConfig{Secret: "s", ExpirationMinutes: 1}, time.Now(), AccessTokenPayload{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrMissingIssuer)

	_, err = MintAccessToken(testConfig(), time.Now(), AccessTokenPayload{Email: "  "})
	assert.ErrorIs(t, err, ErrNoIdentity)

	_, err = ParseAccessToken(config.JWTConfig{}, "anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestParseToleratesClockSkew(t *testing.T) {
	cfg := testConfig()
	cfg.ExpirationMinutes = 1
	// Expired ten seconds ago, inside the allowed skew.
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{Email: "ada@example.com"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Username())
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := testConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{Email: "ada@example.com"})
	require.NoError(t, err)

	cfg.Secret = "rotated"
	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
