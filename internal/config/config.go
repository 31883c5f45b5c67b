package config

// Config mirrors the INI sections and keys spec.md §6 recognizes. Every
// field maps 1:1 onto a downstream package's own Config struct
// (upstream.Config, backend driver DSNs, exportfmt formats); this type
// exists only to centralize loading and validation.
type Config struct {
	General   GeneralConfig   `ini:"GENERAL"`
	WG        WGConfig        `ini:"WG" validate:"required"`
	WoT       WoTInspectorConfig `ini:"WOTINSPECTOR"`
	Accounts  AccountsConfig  `ini:"ACCOUNTS"`
	TankStats TankStatsConfig `ini:"TANK_STATS"`
	Database  DatabaseConfig  `ini:"DATABASE"`
}

type GeneralConfig struct {
	Backend string `ini:"backend" validate:"omitempty,oneof=mongodb postgresql files"`
}

type WGConfig struct {
	AppID      string  `ini:"wg_app_id" validate:"required"`
	RateLimit  float64 `ini:"rate_limit" validate:"gt=0"`
	APIWorkers int     `ini:"api_workers" validate:"gte=0"`
}

type WoTInspectorConfig struct {
	RateLimit float64 `ini:"rate_limit" validate:"gt=0"`
	MaxPages  int     `ini:"max_pages" validate:"gte=0"`
	Workers   int     `ini:"workers" validate:"gte=0"`
	AuthToken string  `ini:"auth_token"`
}

type AccountsConfig struct {
	ImportFormat string `ini:"import_format" validate:"omitempty,oneof=txt csv json"`
	ExportFormat string `ini:"export_format" validate:"omitempty,oneof=txt csv json"`
	ExportFile   string `ini:"export_file"`
}

type TankStatsConfig struct {
	ExportFormat     string `ini:"export_format" validate:"omitempty,oneof=txt csv json"`
	ExportFile       string `ini:"export_file"`
	ExportDataFormat string `ini:"export_data_format" validate:"omitempty,oneof=columnar"`
	ExportDataFile   string `ini:"export_data_file"`
}

// DatabaseConfig is driver-specific and consumed only by the backend
// layer; this package never interprets its keys, just carries them.
type DatabaseConfig struct {
	Driver string `ini:"driver" validate:"omitempty,oneof=duckdb postgres mongo"`
	DSN    string `ini:"dsn"`
	// Database selects the database/schema name when DSN doesn't embed it.
	Database string `ini:"database"`
}

// defaults returns a Config populated with every value spec.md §6
// implies when a key is absent from the file.
func defaults() Config {
	return Config{
		General: GeneralConfig{Backend: "files"},
		WG: WGConfig{
			RateLimit:  10,
			APIWorkers: 4,
		},
		WoT: WoTInspectorConfig{
			RateLimit: 1,
			MaxPages:  1,
			Workers:   4,
		},
		Accounts: AccountsConfig{
			ImportFormat: "txt",
			ExportFormat: "txt",
		},
		TankStats: TankStatsConfig{
			ExportFormat: "csv",
		},
		Database: DatabaseConfig{Driver: "duckdb"},
	}
}
