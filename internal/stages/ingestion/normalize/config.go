// internal/stages/ingestion/normalize/config.go
package normalize

import "finaid-pipeline/internal/common/config"

// Config holds the header-to-canonical-field mapping tables for both source
// kinds and the synthesized identifier scheme for delinquency rows.
type Config struct {
	DelinquencyMap map[string]string
	StudentMap     map[string]string
	IDPrefix       string
	IDBase         int
}

// ConfigFrom extracts the stage configuration from the application config.
func ConfigFrom(app *config.Config) *Config {
	return &Config{
		DelinquencyMap: app.Normalize.DelinquencyMap,
		StudentMap:     app.Normalize.StudentMap,
		IDPrefix:       app.Normalize.IDPrefix,
		IDBase:         app.Normalize.IDBase,
	}
}
