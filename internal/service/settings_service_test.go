package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/testutil"
)

// TestSettingsService_SetCoingeckoAPIKey tests storing the provider API key.
//
// WHY: The API key is a secret. It must be stored as an encrypted token, come
// back masked, and never be accepted at all when no encryption key is
// configured.
func TestSettingsService_SetCoingeckoAPIKey(t *testing.T) {
	t.Run("stores the key encrypted and returns it masked", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		apiKey := "CG-demo-0123456789abcdef"

		// Execute
		setting, err := svc.SetCoingeckoAPIKey(context.Background(), apiKey)

		// Assert
		if err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}
		if setting.Key != "coingecko_api_key" {
			t.Errorf("Expected key coingecko_api_key, got %s", setting.Key)
		}
		if !setting.IsEncrypted {
			t.Error("Expected setting flagged as encrypted")
		}
		if !strings.HasSuffix(setting.Value, "cdef") || strings.Contains(setting.Value, "demo") {
			t.Errorf("Expected masked value ending in cdef, got %s", setting.Value)
		}

		// The plaintext must not appear in the database.
		var stored string
		if err := db.QueryRow(`SELECT value FROM system_setting WHERE key = 'coingecko_api_key'`).Scan(&stored); err != nil {
			t.Fatalf("Failed to query stored setting: %v", err)
		}
		if strings.Contains(stored, apiKey) {
			t.Error("Expected encrypted storage, found plaintext key in database")
		}
	})

	t.Run("replaces a previously stored key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		if _, err := svc.SetCoingeckoAPIKey(context.Background(), "CG-old-key-00000000"); err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}

		// Execute
		setting, err := svc.SetCoingeckoAPIKey(context.Background(), "CG-new-key-99999999")

		// Assert
		if err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}
		if !strings.HasSuffix(setting.Value, "9999") {
			t.Errorf("Expected masked new key, got %s", setting.Value)
		}
		testutil.AssertRowCount(t, db, "system_setting", 1)
	})

	t.Run("rejects writes without an encryption key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, "")

		// Execute
		_, err := svc.SetCoingeckoAPIKey(context.Background(), "CG-demo-key")

		// Assert
		if !errors.Is(err, apperrors.ErrEncryptionUnavailable) {
			t.Errorf("Expected ErrEncryptionUnavailable, got %v", err)
		}
		testutil.AssertRowCount(t, db, "system_setting", 0)
	})
}

// TestSettingsService_GetCoingeckoAPIKey tests reading the stored key.
//
// WHY: The settings screen shows whether a key is configured without ever
// revealing it. A missing key must be distinguishable from an empty one.
func TestSettingsService_GetCoingeckoAPIKey(t *testing.T) {
	t.Run("returns not found when no key is stored", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		// Execute
		_, err := svc.GetCoingeckoAPIKey()

		// Assert
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("masks short keys completely", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		if _, err := svc.SetCoingeckoAPIKey(context.Background(), "abcd"); err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}

		// Execute
		setting, err := svc.GetCoingeckoAPIKey()

		// Assert
		if err != nil {
			t.Fatalf("GetCoingeckoAPIKey() returned unexpected error: %v", err)
		}
		if setting.Value != "****" {
			t.Errorf("Expected fully masked short key, got %s", setting.Value)
		}
	})

	t.Run("fails for a token encrypted with a different key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		writer := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))
		if _, err := writer.SetCoingeckoAPIKey(context.Background(), "CG-demo-key-1234"); err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}

		reader := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		// Execute
		_, err := reader.GetCoingeckoAPIKey()

		// Assert
		if err == nil {
			t.Error("Expected decrypt error for mismatched key, got nil")
		}
	})
}

// TestSettingsService_LoadStoredAPIKey tests the startup key load.
//
// WHY: The server must come up whether or not a key has ever been stored, but
// a stored key that cannot be decrypted has to surface at startup instead of
// silently running unauthenticated.
func TestSettingsService_LoadStoredAPIKey(t *testing.T) {
	t.Run("succeeds with no stored key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		// Execute
		err := svc.LoadStoredAPIKey(context.Background())

		// Assert
		if err != nil {
			t.Errorf("Expected nil for missing key, got %v", err)
		}
	})

	t.Run("loads a previously stored key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		fernetKey := testutil.MakeFernetKey(t)
		writer := testutil.NewTestSettingsService(t, db, fernetKey)
		if _, err := writer.SetCoingeckoAPIKey(context.Background(), "CG-demo-key-1234"); err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}

		reader := testutil.NewTestSettingsService(t, db, fernetKey)

		// Execute
		err := reader.LoadStoredAPIKey(context.Background())

		// Assert
		if err != nil {
			t.Errorf("LoadStoredAPIKey() returned unexpected error: %v", err)
		}
	})

	t.Run("fails for an undecryptable stored key", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		writer := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))
		if _, err := writer.SetCoingeckoAPIKey(context.Background(), "CG-demo-key-1234"); err != nil {
			t.Fatalf("SetCoingeckoAPIKey() returned unexpected error: %v", err)
		}

		reader := testutil.NewTestSettingsService(t, db, testutil.MakeFernetKey(t))

		// Execute
		err := reader.LoadStoredAPIKey(context.Background())

		// Assert
		if err == nil {
			t.Error("Expected decrypt error at startup, got nil")
		}
	})
}
