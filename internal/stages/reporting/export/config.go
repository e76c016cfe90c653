// internal/stages/reporting/export/config.go
package export

import "finaid-pipeline/internal/common/config"

// Config holds the exporter's recommendation texts and output file names.
type Config struct {
	Recommendations config.RecommendationConfig
	DetailFile      string
	SummaryFile     string
}

// ConfigFrom extracts the exporter settings from the application config.
func ConfigFrom(app *config.Config) Config {
	return Config{
		Recommendations: app.Export.Recommendations,
		DetailFile:      app.Export.DetailFile,
		SummaryFile:     app.Export.SummaryFile,
	}
}
