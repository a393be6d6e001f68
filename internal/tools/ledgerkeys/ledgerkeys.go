// Package ledgerkeys generates ledger key material and mints caller tokens.
package ledgerkeys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/louisbranch/waybill/internal/services/ledger/auth"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

// Config holds ledger-keys flags.
type Config struct {
	// Bytes is the size of the generated event HMAC key.
	Bytes int
	// Subject switches the tool to token minting for this caller.
	Subject string
	// TTL overrides the configured token lifetime when positive.
	TTL time.Duration
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes in the event HMAC key")
	fs.StringVar(&cfg.Subject, "subject", "", "mint a caller token for this identity instead of generating keys")
	fs.DurationVar(&cfg.TTL, "ttl", 0, "token lifetime (default: WAYBILL_IDENTITY_TOKEN_TTL)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates keys, or mints a token when cfg.Subject is set. Minting reads
// the signer from the WAYBILL_IDENTITY_* environment.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Subject == "" {
		return GenerateKeys(cfg, out, reader)
	}
	signer, err := auth.LoadSignerConfigFromEnv(nil)
	if err != nil {
		return err
	}
	if cfg.TTL > 0 {
		signer.TTL = cfg.TTL
	}
	return MintToken(cfg.Subject, signer, out)
}

// GenerateKeys writes export lines for a fresh event HMAC key and identity
// key pair.
func GenerateKeys(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	hmacKey := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, hmacKey); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate identity key: %w", err)
	}
	lines := []string{
		"WAYBILL_EVENT_HMAC_KEY=" + hex.EncodeToString(hmacKey),
		"WAYBILL_IDENTITY_PRIVATE_KEY=" + auth.EncodeKey(privateKey),
		"WAYBILL_IDENTITY_PUBLIC_KEY=" + auth.EncodeKey(publicKey),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(out, "export %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// MintToken writes an export line carrying a caller token for subject.
func MintToken(subject string, signer auth.SignerConfig, out io.Writer) error {
	if out == nil {
		return errors.New("output is required")
	}
	caller, err := identity.New(subject)
	if err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	token, err := auth.Mint(caller, signer)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "export WAYBILL_LEDGER_TOKEN=%s\n", token)
	return err
}
