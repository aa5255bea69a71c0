package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "RETENTION_YEARS", "DOCUMENT_ESCAPE_HTML", "PROFILE_CACHE_TTL", "ALLOWED_ORIGINS", "POSTAL_CODE_LOOKUP_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.App.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.App.Port)
	}
	if cfg.App.RetentionYears != 20 {
		t.Errorf("Expected default retention 20, got %d", cfg.App.RetentionYears)
	}
	if !cfg.Document.EscapeHTML {
		t.Error("Expected HTML escaping to default to true")
	}
	if cfg.Redis.ProfileCacheTTL != 10*time.Minute {
		t.Errorf("Expected 10m cache TTL, got %v", cfg.Redis.ProfileCacheTTL)
	}
	if cfg.Address.LookupURL != "https://viacep.com.br" || cfg.Address.Timeout != 5*time.Second {
		t.Errorf("Unexpected address lookup config %+v", cfg.Address)
	}
	if len(cfg.App.AllowedOrigins) != 2 {
		t.Errorf("Expected default origins, got %v", cfg.App.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("RETENTION_YEARS", "5")
	t.Setenv("DOCUMENT_ESCAPE_HTML", "false")
	t.Setenv("PROFILE_CACHE_TTL", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()

	if cfg.App.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.App.Port)
	}
	if cfg.App.RetentionYears != 5 {
		t.Errorf("Expected retention 5, got %d", cfg.App.RetentionYears)
	}
	if cfg.Document.EscapeHTML {
		t.Error("Expected HTML escaping disabled")
	}
	if cfg.Redis.ProfileCacheTTL != 30*time.Second {
		t.Errorf("Expected 30s TTL, got %v", cfg.Redis.ProfileCacheTTL)
	}
	if !reflect.DeepEqual(cfg.App.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Errorf("Unexpected origins %v", cfg.App.AllowedOrigins)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := GetEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}

func TestAppLocation_Fallback(t *testing.T) {
	if loc := (App{Timezone: "Not/AZone"}).Location(); loc != time.Local {
		t.Errorf("Expected time.Local fallback, got %v", loc)
	}
}
