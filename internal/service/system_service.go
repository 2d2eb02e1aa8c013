package service

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/jblomberg5r/CryptoValhalla/internal/database"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db                *sql.DB
	encryptionEnabled bool
}

// NewSystemService creates a new SystemService. encryptionEnabled reports
// whether a fernet key is configured, which gates the encrypted-settings
// feature flag.
func NewSystemService(db *sql.DB, encryptionEnabled bool) *SystemService {
	return &SystemService{
		db:                db,
		encryptionEnabled: encryptionEnabled,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the application version, the applied schema version
// and a map of feature availability flags.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	schemaVersion, err := database.SchemaVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	return model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(schemaVersion, 10),
		Features: map[string]bool{
			"csvImport":         true,
			"priceRefresh":      true,
			"encryptedSettings": s.encryptionEnabled,
		},
	}, nil
}
