package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
	ini "gopkg.in/ini.v1"
)

// EnvPrefix namespaces the environment variable override layer, e.g.
// BLITZSTATS_WG_WG_APP_ID overrides [WG] wg_app_id.
const EnvPrefix = "BLITZSTATS_"

var validate = validator.New()

// Load builds a Config the same way the rest of this codebase loads its
// settings: defaults first, then the INI file at path (if it exists),
// then environment variable overrides, then struct validation.
//
// An empty path skips the file layer; env overrides and defaults still
// apply, matching how the CLI lets --config be omitted in favor of
// flags and environment alone.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("no such file: %s", path)
	}
	f, err := ini.Load(path)
	if err != nil {
		return err
	}
	return f.MapTo(cfg)
}

// applyEnvOverrides mirrors the file's section/key shape as
// BLITZSTATS_<SECTION>_<KEY> so callers can override a single setting
// (e.g. in a container) without shipping a whole file.
func applyEnvOverrides(cfg *Config) {
	strVar(&cfg.General.Backend, "GENERAL_BACKEND")

	strVar(&cfg.WG.AppID, "WG_WG_APP_ID")
	floatVar(&cfg.WG.RateLimit, "WG_RATE_LIMIT")
	intVar(&cfg.WG.APIWorkers, "WG_API_WORKERS")

	floatVar(&cfg.WoT.RateLimit, "WOTINSPECTOR_RATE_LIMIT")
	intVar(&cfg.WoT.MaxPages, "WOTINSPECTOR_MAX_PAGES")
	intVar(&cfg.WoT.Workers, "WOTINSPECTOR_WORKERS")
	strVar(&cfg.WoT.AuthToken, "WOTINSPECTOR_AUTH_TOKEN")

	strVar(&cfg.Accounts.ImportFormat, "ACCOUNTS_IMPORT_FORMAT")
	strVar(&cfg.Accounts.ExportFormat, "ACCOUNTS_EXPORT_FORMAT")
	strVar(&cfg.Accounts.ExportFile, "ACCOUNTS_EXPORT_FILE")

	strVar(&cfg.TankStats.ExportFormat, "TANK_STATS_EXPORT_FORMAT")
	strVar(&cfg.TankStats.ExportFile, "TANK_STATS_EXPORT_FILE")
	strVar(&cfg.TankStats.ExportDataFormat, "TANK_STATS_EXPORT_DATA_FORMAT")
	strVar(&cfg.TankStats.ExportDataFile, "TANK_STATS_EXPORT_DATA_FILE")

	strVar(&cfg.Database.Driver, "DATABASE_DRIVER")
	strVar(&cfg.Database.DSN, "DATABASE_DSN")
	strVar(&cfg.Database.Database, "DATABASE_DATABASE")
}

func strVar(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return
	}
	*dst = n
}

func floatVar(dst *float64, key string) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return
	}
	*dst = n
}
