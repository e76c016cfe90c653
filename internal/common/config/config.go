// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Normalize  NormalizeConfig  `mapstructure:"normalize"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
	Templates  TemplateConfig   `mapstructure:"templates"`
	Export     ExportConfig     `mapstructure:"export"`
}

// --- Core App Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	// MetricsAddress enables the Prometheus endpoint when non-empty.
	MetricsAddress string `mapstructure:"metrics_address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// --- Pipeline Stage Config ---

// NormalizeConfig holds the header-to-canonical-field mapping tables and the
// synthesized identifier scheme for delinquency rows.
type NormalizeConfig struct {
	DelinquencyMap map[string]string `mapstructure:"delinquency_map"`
	StudentMap     map[string]string `mapstructure:"student_map"`
	IDPrefix       string            `mapstructure:"id_prefix"`
	IDBase         int               `mapstructure:"id_base"`
}

// RiskConfig holds the delinquency band table and tier thresholds.
type RiskConfig struct {
	// Scoring selects the in-band severity function: "interpolate" (default,
	// deterministic) or "jitter" (seeded draw within the band).
	Scoring        string     `mapstructure:"scoring"`
	Seed           int64      `mapstructure:"seed"`
	SaturationDays int        `mapstructure:"saturation_days"`
	Bands          []RiskBand `mapstructure:"bands"`
	Tiers          TierConfig `mapstructure:"tiers"`
}

// RiskBand maps a delinquency range starting at FromDays (exclusive upper
// bound is the next band's FromDays) onto a score sub-range.
type RiskBand struct {
	FromDays int     `mapstructure:"from_days"`
	ScoreMin float64 `mapstructure:"score_min"`
	ScoreMax float64 `mapstructure:"score_max"`
}

// TierConfig holds the monotone score thresholds for risk tiers.
type TierConfig struct {
	High   float64 `mapstructure:"high"`
	Medium float64 `mapstructure:"medium"`
}

// ComplianceConfig holds the blocklist of restricted student-record categories.
type ComplianceConfig struct {
	Blocklist []string `mapstructure:"blocklist"`
}

// TemplateConfig holds settings for the message template store.
type TemplateConfig struct {
	// RegistryPath optionally points at a JSON registry that replaces the
	// built-in template set. Validated against the registry schema on load.
	RegistryPath string `mapstructure:"registry_path"`
}

// ExportConfig holds the exporter's recommendation texts and sheet names.
type ExportConfig struct {
	Recommendations RecommendationConfig `mapstructure:"recommendations"`
	DetailFile      string               `mapstructure:"detail_file"`
	SummaryFile     string               `mapstructure:"summary_file"`
}

type RecommendationConfig struct {
	High   string `mapstructure:"high"`
	Medium string `mapstructure:"medium"`
	Low    string `mapstructure:"low"`
}
