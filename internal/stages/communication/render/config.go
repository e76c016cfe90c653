// internal/stages/communication/render/config.go
package render

import "finaid-pipeline/internal/common/config"

// Config holds the template store and compliance settings.
type Config struct {
	// Blocklist names the restricted student-record categories that must
	// never appear in outbound message text.
	Blocklist []string
	// RegistryPath optionally points at a JSON template registry that
	// replaces the built-in template set.
	RegistryPath string
}

// ConfigFrom extracts the rendering settings from the application config.
func ConfigFrom(app *config.Config) Config {
	return Config{
		Blocklist:    app.Compliance.Blocklist,
		RegistryPath: app.Templates.RegistryPath,
	}
}
