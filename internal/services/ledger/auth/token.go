package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/id"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

type callerClaims struct {
	jwt.RegisteredClaims
}

// Mint issues a token naming subject as the caller.
func Mint(subject identity.Identity, cfg SignerConfig) (string, error) {
	if subject.IsZero() {
		return "", errors.New("token subject is required")
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PrivateKeySize {
		return "", errors.New("token signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	now := cfg.Now().UTC()
	claims := callerClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   subject.String(),
		Audience:  jwt.ClaimStrings{cfg.Audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a caller token and returns the identity it names.
func Verify(token string, cfg VerifierConfig) (identity.Identity, error) {
	if token == "" {
		return identity.Identity{}, unauthenticated("caller token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return identity.Identity{}, errors.New("token verifier is not configured")
	}

	var parsed callerClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return identity.Identity{}, mapJWTError(err)
	}

	if parsed.Issuer != cfg.Issuer {
		return identity.Identity{}, unauthenticated("caller token issuer mismatch")
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return identity.Identity{}, unauthenticated("caller token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return identity.Identity{}, unauthenticated("caller token exp is required")
	}
	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.After(now) {
		return identity.Identity{}, unauthenticated("caller token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return identity.Identity{}, unauthenticated("caller token not active yet")
	}

	caller, err := identity.New(parsed.Subject)
	if err != nil {
		return identity.Identity{}, unauthenticated("caller token subject is invalid")
	}
	return caller, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return unauthenticated("caller token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return unauthenticated("caller token alg is invalid")
	}
	return unauthenticated("caller token is invalid")
}

func unauthenticated(message string) error {
	return apperrors.New(apperrors.CodeUnauthenticated, message)
}
