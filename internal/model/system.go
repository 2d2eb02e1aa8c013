package model

import "time"

// VersionInfo contains version and feature information for the application.
type VersionInfo struct {
	AppVersion string          `json:"app_version"`
	DbVersion  string          `json:"db_version"`
	Features   map[string]bool `json:"features"`
}

// Setting represents a row in the system_setting table. Values flagged as
// encrypted are stored as fernet tokens and never returned verbatim.
type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	IsEncrypted bool      `json:"isEncrypted"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SettingResponse represents a system setting for API responses. Encrypted
// values are masked down to their last characters before leaving the server.
type SettingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	IsEncrypted bool      `json:"isEncrypted"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}
