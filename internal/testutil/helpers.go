package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/config"
	"github.com/jblomberg5r/CryptoValhalla/internal/logging"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
)

func NewTestTransactionService(t *testing.T, db *sql.DB) *service.TransactionService {
	t.Helper()

	transactionRepo := repository.NewTransactionRepository(db)
	paRepo := repository.NewPortfolioAssetRepository(db)
	assetRepo := repository.NewAssetRepository(db)

	return service.NewTransactionService(
		transactionRepo,
		paRepo,
		assetRepo,
	)
}

func NewTestPnLService(t *testing.T, db *sql.DB) *service.PnLService {
	t.Helper()

	portfolioRepo := repository.NewPortfolioRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	transactionService := NewTestTransactionService(t, db)

	return service.NewPnLService(
		portfolioRepo,
		assetRepo,
		transactionService,
		logging.NewNop(),
	)
}

func NewTestPortfolioService(t *testing.T, db *sql.DB) *service.PortfolioService {
	t.Helper()

	portfolioRepo := repository.NewPortfolioRepository(db)
	paRepo := repository.NewPortfolioAssetRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	pnlService := NewTestPnLService(t, db)

	return service.NewPortfolioService(
		portfolioRepo,
		paRepo,
		assetRepo,
		pnlService,
	)
}

func NewTestAssetService(t *testing.T, db *sql.DB) *service.AssetService {
	t.Helper()

	assetRepo := repository.NewAssetRepository(db)

	return service.NewAssetService(assetRepo, logging.NewNop())
}

// NewTestMarketDataService creates a MarketDataService backed by the given
// market client. Pass a MockMarketClient for tests that must not reach the
// network.
func NewTestMarketDataService(t *testing.T, db *sql.DB, market coingecko.Client) *service.MarketDataService {
	t.Helper()

	assetRepo := repository.NewAssetRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	return service.NewMarketDataService(
		market,
		assetRepo,
		transactionRepo,
		logging.NewNop(),
	)
}

// NewTestSettingsService creates a SettingsService with the given fernet key.
// Pass an empty key to exercise the encryption-disabled paths, or
// MakeFernetKey(t) for a working one.
func NewTestSettingsService(t *testing.T, db *sql.DB, fernetKey string) *service.SettingsService {
	t.Helper()

	settingRepo := repository.NewSettingRepository(db)
	market := coingecko.NewMarketClient(config.CoinGeckoConfig{
		BaseURL:        "http://localhost:0",
		RequestTimeout: time.Second,
		RatePerSecond:  100,
		RateBurst:      1,
	}, logging.NewNop())

	settingsService, err := service.NewSettingsService(
		settingRepo,
		market,
		config.FernetConfig{Key: fernetKey},
		logging.NewNop(),
	)
	if err != nil {
		t.Fatalf("Failed to create settings service: %v", err)
	}

	return settingsService
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, false)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeFernetKey generates a valid base64url-encoded fernet key for tests
// that exercise encrypted settings.
func MakeFernetKey(t *testing.T) string {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return key.Encode()
}

// MakeCoinID generates a unique CoinGecko-style identifier for testing.
//
// Example usage:
//
//	id := testutil.MakeCoinID("testcoin")
//	// Returns: "testcoin-a1b2c3"
func MakeCoinID(base string) string {
	if base == "" {
		base = "coin"
	}
	return base + "-" + randomLower(6)
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("BTC")
//	// Returns: "BTC1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TST"
	}
	return base + randomAlphanumeric(4)
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// randomLower generates a random lowercase string, shaped like the slugs
// CoinGecko uses for coin identifiers.
func randomLower(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}

// Common test constants

var (
	// CommonCurrencies contains the quote currencies the application supports
	CommonCurrencies = []string{"usd", "eur", "sek"}
)

// RandomCurrency returns a random currency from CommonCurrencies.
func RandomCurrency() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return CommonCurrencies[rand.Intn(len(CommonCurrencies))]
}
