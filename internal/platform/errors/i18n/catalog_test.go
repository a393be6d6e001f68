package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	if got := GetCatalog("").Locale(); got != BaseLocale {
		t.Fatalf("empty locale = %q, want %q", got, BaseLocale)
	}
	if got := GetCatalog("xx-YY").Locale(); got != BaseLocale {
		t.Fatalf("unknown locale = %q, want %q", got, BaseLocale)
	}
}

func TestGetCatalogMatchesAcceptLanguage(t *testing.T) {
	if got := GetCatalog("pt-BR,pt;q=0.9,en;q=0.5").Locale(); got != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", got)
	}
	if got := GetCatalog("pt").Locale(); got != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", got)
	}
}

func TestFormatRendersMetadata(t *testing.T) {
	got := GetCatalog("en-US").Format(CodeNotFound, map[string]string{"ProductID": "PROD-001"})
	if got != "Product PROD-001 was not found." {
		t.Fatalf("message = %q", got)
	}
	got = GetCatalog("pt-BR").Format(CodeAlreadyExists, map[string]string{"ProductID": "PROD-001"})
	if got != "O produto PROD-001 já está registrado." {
		t.Fatalf("message = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := GetCatalog("en-US")
	if got := cat.Format("SOMETHING_ELSE", nil); got != "SOMETHING_ELSE" {
		t.Fatalf("unknown code = %q, want code fallback", got)
	}
	if got := cat.Format(CodeNotFound, nil); got != "Product  was not found." {
		t.Fatalf("missing metadata = %q", got)
	}
}
