// internal/stages/analysis/risk/config.go
package risk

import "finaid-pipeline/internal/common/config"

// Scoring modes for the in-band severity function.
const (
	ScoringInterpolate = "interpolate"
	ScoringJitter      = "jitter"
)

// Config holds the delinquency band table, tier thresholds and scoring mode.
type Config struct {
	Scoring        string
	Seed           int64
	SaturationDays int
	Bands          []config.RiskBand
	Tiers          config.TierConfig
}

// ConfigFrom extracts the stage configuration from the application config.
func ConfigFrom(app *config.Config) *Config {
	return &Config{
		Scoring:        app.Risk.Scoring,
		Seed:           app.Risk.Seed,
		SaturationDays: app.Risk.SaturationDays,
		Bands:          app.Risk.Bands,
		Tiers:          app.Risk.Tiers,
	}
}
