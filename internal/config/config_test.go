package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempIni(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blitzstats.ini")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_DefaultsOnlyFailsValidationWithoutAppID(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error, wg_app_id is required and has no default")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempIni(t, `
[GENERAL]
backend = postgresql

[WG]
wg_app_id = deadbeef
rate_limit = 20
api_workers = 8

[WOTINSPECTOR]
max_pages = 50
workers = 10

[TANK_STATS]
export_format = json
export_data_format = columnar
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Backend != "postgresql" {
		t.Errorf("backend = %q, want postgresql", cfg.General.Backend)
	}
	if cfg.WG.AppID != "deadbeef" {
		t.Errorf("wg_app_id = %q, want deadbeef", cfg.WG.AppID)
	}
	if cfg.WG.RateLimit != 20 {
		t.Errorf("wg rate_limit = %v, want 20", cfg.WG.RateLimit)
	}
	if cfg.WoT.MaxPages != 50 || cfg.WoT.Workers != 10 {
		t.Errorf("wotinspector max_pages/workers = %d/%d, want 50/10", cfg.WoT.MaxPages, cfg.WoT.Workers)
	}
	// untouched sections keep their defaults
	if cfg.Accounts.ImportFormat != "txt" {
		t.Errorf("accounts import_format = %q, want default txt", cfg.Accounts.ImportFormat)
	}
	if cfg.TankStats.ExportDataFormat != "columnar" {
		t.Errorf("tank_stats export_data_format = %q, want columnar", cfg.TankStats.ExportDataFormat)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempIni(t, `
[WG]
wg_app_id = from-file
rate_limit = 5
`)
	t.Setenv(EnvPrefix+"WG_WG_APP_ID", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WG.AppID != "from-env" {
		t.Errorf("wg_app_id = %q, want from-env (env must win over file)", cfg.WG.AppID)
	}
	if cfg.WG.RateLimit != 5 {
		t.Errorf("rate_limit = %v, want 5 from file (no env override set)", cfg.WG.RateLimit)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := writeTempIni(t, `
[GENERAL]
backend = oracle

[WG]
wg_app_id = deadbeef
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for unsupported backend")
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Fatal("expected error for nonexistent config file")
	}
}
