// internal/stages/analysis/majors/config.go
package majors

import "finaid-pipeline/internal/common/config"

// UndeclaredMajor groups merged records whose student carries no major.
const UndeclaredMajor = "(undeclared)"

// Config holds the aggregation settings.
type Config struct {
	// Tiers buckets each group's average risk score the same way
	// individual records are tiered.
	Tiers config.TierConfig
}

// ConfigFrom extracts the aggregator settings from the application config.
func ConfigFrom(app *config.Config) Config {
	return Config{Tiers: app.Risk.Tiers}
}
