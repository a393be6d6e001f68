package integrity

import "testing"

func TestKeyringFromEnvRequiresKey(t *testing.T) {
	t.Setenv("WAYBILL_EVENT_HMAC_KEY", "")
	t.Setenv("WAYBILL_EVENT_HMAC_KEYS", "")
	t.Setenv("WAYBILL_EVENT_HMAC_KEY_ID", "")

	if _, err := KeyringFromEnv(); err == nil {
		t.Fatal("expected error when no key is configured")
	}
}

func TestKeyringFromEnvSingleKey(t *testing.T) {
	t.Setenv("WAYBILL_EVENT_HMAC_KEY", "secret")
	t.Setenv("WAYBILL_EVENT_HMAC_KEYS", "   ")
	t.Setenv("WAYBILL_EVENT_HMAC_KEY_ID", "   ")

	ring, err := KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if ring.ActiveKeyID() != "v1" {
		t.Fatalf("active key id = %s, want v1", ring.ActiveKeyID())
	}
}

func TestConfigKeySpec(t *testing.T) {
	cfg := Config{Keys: "k1=one, k2=two", KeyID: "k2"}
	ring, err := cfg.Keyring()
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	if ring.ActiveKeyID() != "k2" {
		t.Fatalf("active key id = %s, want k2", ring.ActiveKeyID())
	}
	sig, _, err := ring.SignChainHash("PROD-001", "hash")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	single, err := NewKeyring(map[string][]byte{"k2": []byte("two")}, "k2")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	if err := single.VerifyChainHash("PROD-001", "hash", sig, "k2"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestConfigKeySpecInvalid(t *testing.T) {
	for _, raw := range []string{"k1", "=one", "k1="} {
		cfg := Config{Keys: raw, KeyID: "k1"}
		if _, err := cfg.Keyring(); err == nil {
			t.Fatalf("Keys %q: expected error", raw)
		}
	}
}
