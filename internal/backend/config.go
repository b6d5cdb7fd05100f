package backend

import (
	"fmt"

	"paydash/internal/config"
	gsheet "paydash/internal/sheets/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SourceBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.SourceBackend)
	}

	saFile := appConfig.GoogleServiceAccountFile
	if saFile == "" && appConfig.GoogleServiceAccountJSON == "" {
		saFile = appConfig.GoogleApplicationCredFile
	}

	return Config{
		Type: backendType,

		SourceURL:    appConfig.SourceURL,
		MaxBodyBytes: appConfig.MaxBodyBytes,

		Google: gsheet.Config{
			SpreadsheetID:      appConfig.GoogleSpreadsheetID,
			Range:              appConfig.GoogleSheetRange,
			ServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
			ServiceAccountFile: saFile,
		},

		SeedFile: appConfig.SeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.SourceURL == "" {
			return fmt.Errorf("source URL is required for csv backend")
		}
	case SheetsBackend:
		if c.Google.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		// GOOGLE_APPLICATION_CREDENTIALS is still consulted by the client itself.
	case MemoryBackend:
		// A missing seed file falls back to the built-in sample.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, SheetsBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
