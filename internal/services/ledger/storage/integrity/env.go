package integrity

import (
	"fmt"
	"strings"

	"github.com/louisbranch/waybill/internal/platform/config"
)

const defaultKeyID = "v1"

// Config is the keyring configuration read from the environment.
// WAYBILL_EVENT_HMAC_KEYS holds "id=secret" pairs separated by commas and
// takes precedence over the single WAYBILL_EVENT_HMAC_KEY.
type Config struct {
	Key   string `env:"WAYBILL_EVENT_HMAC_KEY"`
	Keys  string `env:"WAYBILL_EVENT_HMAC_KEYS"`
	KeyID string `env:"WAYBILL_EVENT_HMAC_KEY_ID" envDefault:"v1"`
}

// KeyringFromEnv loads the HMAC keyring from the process environment.
func KeyringFromEnv() (*Keyring, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return cfg.Keyring()
}

// Keyring builds the keyring described by cfg.
func (cfg Config) Keyring() (*Keyring, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		keyID = defaultKeyID
	}

	keySpec := strings.TrimSpace(cfg.Keys)
	if keySpec == "" {
		raw := strings.TrimSpace(cfg.Key)
		if raw == "" {
			return nil, fmt.Errorf("WAYBILL_EVENT_HMAC_KEY is required")
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for entry := range strings.SplitSeq(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		value = strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid WAYBILL_EVENT_HMAC_KEYS entry")
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
