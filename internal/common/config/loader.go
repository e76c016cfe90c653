// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	commonerrors "finaid-pipeline/internal/common/errors"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like PIPELINE_LOGGING_LEVEL
	v.SetEnvPrefix("pipeline")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored if absent.
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a fully defaulted configuration without touching disk.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// ApplyDefaults sets default values for optional configuration fields. The
// mapping tables and scoring bands default to the NSLDS/SIS layout the
// pipeline was built for.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "finaid-pipeline"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if len(cfg.Normalize.DelinquencyMap) == 0 {
		cfg.Normalize.DelinquencyMap = map[string]string{
			"Borrower SSN":        "ssn",
			"Borrower First Name": "first_name",
			"Borrower Last Name":  "last_name",
			"E-mail":              "email",
			"Days Delinquent":     "days_delinquent",
			"OPB":                 "outstanding_balance",
			"Loan Type":           "loan_type",
		}
	}
	if len(cfg.Normalize.StudentMap) == 0 {
		cfg.Normalize.StudentMap = map[string]string{
			"Student ID":        "student_id",
			"SSN":               "ssn",
			"First Name":        "first_name",
			"Last Name":         "last_name",
			"Email":             "email",
			"Major":             "major",
			"Program":           "program",
			"CIP Code":          "cip_code",
			"Academic Standing": "academic_standing",
			"GPA":               "gpa",
			"Credit Hours":      "credit_hours",
			"Enrollment Status": "enrollment_status",
		}
	}
	if cfg.Normalize.IDPrefix == "" {
		cfg.Normalize.IDPrefix = "STU"
	}
	if cfg.Normalize.IDBase == 0 {
		cfg.Normalize.IDBase = 1000
	}

	if cfg.Risk.Scoring == "" {
		cfg.Risk.Scoring = "interpolate"
	}
	if cfg.Risk.SaturationDays == 0 {
		cfg.Risk.SaturationDays = 180
	}
	if len(cfg.Risk.Bands) == 0 {
		cfg.Risk.Bands = []RiskBand{
			{FromDays: 0, ScoreMin: 0.0, ScoreMax: 0.3},
			{FromDays: 30, ScoreMin: 0.3, ScoreMax: 0.6},
			{FromDays: 90, ScoreMin: 0.6, ScoreMax: 0.8},
			{FromDays: 180, ScoreMin: 0.8, ScoreMax: 1.0},
		}
	}
	if cfg.Risk.Tiers.High == 0 {
		cfg.Risk.Tiers.High = 0.7
	}
	if cfg.Risk.Tiers.Medium == 0 {
		cfg.Risk.Tiers.Medium = 0.4
	}

	if len(cfg.Compliance.Blocklist) == 0 {
		cfg.Compliance.Blocklist = []string{"ssn", "grades", "disciplinary_records"}
	}

	if cfg.Export.Recommendations.High == "" {
		cfg.Export.Recommendations.High = "Urgent outreach: contact borrower within 5 business days to discuss repayment options."
	}
	if cfg.Export.Recommendations.Medium == "" {
		cfg.Export.Recommendations.Medium = "Monitor account and schedule a counseling touchpoint this term."
	}
	if cfg.Export.Recommendations.Low == "" {
		cfg.Export.Recommendations.Low = "Informational: include in the next general repayment-awareness mailing."
	}
	if cfg.Export.DetailFile == "" {
		cfg.Export.DetailFile = "delinquency_detail.csv"
	}
	if cfg.Export.SummaryFile == "" {
		cfg.Export.SummaryFile = "delinquency_summary.csv"
	}
}

// Validate checks critical configuration fields. Tier thresholds must be
// monotone and the band table ordered, or tiering/scoring becomes ill-defined.
func Validate(cfg *Config) error {
	if cfg.Risk.Tiers.High < cfg.Risk.Tiers.Medium {
		return commonerrors.NewConfigInvalidError(fmt.Sprintf(
			"risk.tiers.high (%.2f) must be >= risk.tiers.medium (%.2f)",
			cfg.Risk.Tiers.High, cfg.Risk.Tiers.Medium))
	}

	if len(cfg.Risk.Bands) == 0 {
		return commonerrors.NewConfigInvalidError("risk.bands must not be empty")
	}
	if cfg.Risk.Bands[0].FromDays != 0 {
		return commonerrors.NewConfigInvalidError("risk.bands must start at from_days 0")
	}
	for i, band := range cfg.Risk.Bands {
		if band.ScoreMin < 0 || band.ScoreMax > 1 || band.ScoreMin > band.ScoreMax {
			return commonerrors.NewConfigInvalidError(fmt.Sprintf(
				"risk.bands[%d] score range [%.2f, %.2f] must be ordered within [0, 1]",
				i, band.ScoreMin, band.ScoreMax))
		}
		if i == 0 {
			continue
		}
		prev := cfg.Risk.Bands[i-1]
		if band.FromDays <= prev.FromDays {
			return commonerrors.NewConfigInvalidError(fmt.Sprintf(
				"risk.bands[%d].from_days (%d) must exceed risk.bands[%d].from_days (%d)",
				i, band.FromDays, i-1, prev.FromDays))
		}
		if band.ScoreMin < prev.ScoreMax {
			return commonerrors.NewConfigInvalidError(fmt.Sprintf(
				"risk.bands[%d] score range overlaps risk.bands[%d]", i, i-1))
		}
	}

	if cfg.Risk.Scoring != "interpolate" && cfg.Risk.Scoring != "jitter" {
		return commonerrors.NewConfigInvalidError(fmt.Sprintf(
			"risk.scoring must be \"interpolate\" or \"jitter\", got %q", cfg.Risk.Scoring))
	}

	if cfg.Risk.SaturationDays <= 0 {
		return commonerrors.NewConfigInvalidError("risk.saturation_days must be positive")
	}

	return nil
}
