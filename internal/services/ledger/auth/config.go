package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/waybill/internal/platform/config"
)

// DefaultTokenTTL bounds minted tokens when no TTL is configured.
const DefaultTokenTTL = time.Hour

type identityEnv struct {
	Issuer     string        `env:"WAYBILL_IDENTITY_ISSUER"`
	Audience   string        `env:"WAYBILL_IDENTITY_AUDIENCE"`
	PublicKey  string        `env:"WAYBILL_IDENTITY_PUBLIC_KEY"`
	PrivateKey string        `env:"WAYBILL_IDENTITY_PRIVATE_KEY"`
	TokenTTL   time.Duration `env:"WAYBILL_IDENTITY_TOKEN_TTL" envDefault:"1h"`
}

// VerifierConfig defines how caller tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// SignerConfig defines how caller tokens are minted.
type SignerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// LoadVerifierConfigFromEnv reads token verification configuration.
func LoadVerifierConfigFromEnv(now func() time.Time) (VerifierConfig, error) {
	raw, err := loadEnv()
	if err != nil {
		return VerifierConfig{}, err
	}
	if raw.PublicKey == "" {
		return VerifierConfig{}, errors.New("WAYBILL_IDENTITY_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(raw.PublicKey)
	if err != nil {
		return VerifierConfig{}, fmt.Errorf("decode identity public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return VerifierConfig{}, fmt.Errorf("identity public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return VerifierConfig{
		Issuer:   raw.Issuer,
		Audience: raw.Audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// LoadSignerConfigFromEnv reads token minting configuration.
func LoadSignerConfigFromEnv(now func() time.Time) (SignerConfig, error) {
	raw, err := loadEnv()
	if err != nil {
		return SignerConfig{}, err
	}
	if raw.PrivateKey == "" {
		return SignerConfig{}, errors.New("WAYBILL_IDENTITY_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(raw.PrivateKey)
	if err != nil {
		return SignerConfig{}, fmt.Errorf("decode identity private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return SignerConfig{}, fmt.Errorf("identity private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return SignerConfig{
		Issuer:   raw.Issuer,
		Audience: raw.Audience,
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      raw.TokenTTL,
		Now:      now,
	}, nil
}

func loadEnv() (identityEnv, error) {
	var raw identityEnv
	if err := config.ParseEnv(&raw); err != nil {
		return identityEnv{}, fmt.Errorf("parse identity env: %w", err)
	}
	raw.Issuer = strings.TrimSpace(raw.Issuer)
	raw.Audience = strings.TrimSpace(raw.Audience)
	raw.PublicKey = strings.TrimSpace(raw.PublicKey)
	raw.PrivateKey = strings.TrimSpace(raw.PrivateKey)
	if raw.Issuer == "" {
		return identityEnv{}, errors.New("WAYBILL_IDENTITY_ISSUER is required")
	}
	if raw.Audience == "" {
		return identityEnv{}, errors.New("WAYBILL_IDENTITY_AUDIENCE is required")
	}
	return raw, nil
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

// EncodeKey renders key material the way the identity env variables expect it.
func EncodeKey(key []byte) string {
	return base64.RawStdEncoding.EncodeToString(key)
}
