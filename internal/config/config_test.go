package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port default = %q, want 8080", cfg.Port)
	}
	if cfg.SearchWindowDays != 7 {
		t.Errorf("SearchWindowDays default = %d, want 7", cfg.SearchWindowDays)
	}
	if cfg.MaxSyncPages != 100 {
		t.Errorf("MaxSyncPages default = %d, want 100", cfg.MaxSyncPages)
	}
	if !cfg.SquareSandbox {
		t.Error("SquareSandbox should default to true")
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL default = %s, want 5m", cfg.CatalogCacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEARCH_WINDOW_DAYS", "30")
	t.Setenv("SQUARE_SANDBOX", "false")
	t.Setenv("CATALOG_CACHE_TTL", "90s")

	cfg := Load()

	if cfg.SearchWindowDays != 30 {
		t.Errorf("SearchWindowDays = %d, want 30", cfg.SearchWindowDays)
	}
	if cfg.SquareSandbox {
		t.Error("SquareSandbox should be false")
	}
	if cfg.CatalogCacheTTL != 90*time.Second {
		t.Errorf("CatalogCacheTTL = %s, want 90s", cfg.CatalogCacheTTL)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SEARCH_WINDOW_DAYS", "not-a-number")
	t.Setenv("CATALOG_CACHE_TTL", "soon")

	cfg := Load()

	if cfg.SearchWindowDays != 7 {
		t.Errorf("SearchWindowDays = %d, want fallback 7", cfg.SearchWindowDays)
	}
	if cfg.CatalogCacheTTL != 5*time.Minute {
		t.Errorf("CatalogCacheTTL = %s, want fallback 5m", cfg.CatalogCacheTTL)
	}
}
