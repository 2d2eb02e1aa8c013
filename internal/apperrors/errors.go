package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrAssetNotFound indicates that an asset with the given ID does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetPriceNotFound indicates no price record for a specific asset and date combination.
	ErrAssetPriceNotFound = errors.New("asset price not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPortfolioAssetNotFound indicates that a portfolio-asset link does not exist.
	ErrPortfolioAssetNotFound = errors.New("portfolio-asset link not found")

	// ErrSettingNotFound indicates that a system setting key has no stored value.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrCoinNotFound indicates that the market data provider does not know the coin id.
	ErrCoinNotFound = errors.New("coin not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInsufficientHoldings indicates that a sell transaction cannot be recorded
	// because the portfolio does not hold enough units of the asset.
	ErrInsufficientHoldings = errors.New("insufficient holdings for sale")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrAssetInUse indicates that an asset cannot be removed because transactions reference it.
	ErrAssetInUse = errors.New("asset is in use")

	// ErrUnsupportedCurrency indicates a currency outside the supported set (usd, eur, sek).
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrEncryptionUnavailable indicates that no fernet key is configured, so
	// encrypted settings cannot be written or read.
	ErrEncryptionUnavailable = errors.New("encryption key not configured")

	// Validation errors for required fields
	ErrInvalidPortfolioID   = errors.New("portfolio ID is required")
	ErrInvalidAssetID       = errors.New("asset ID is required")
	ErrInvalidTransactionID = errors.New("transaction ID is required")
	ErrInvalidCurrency      = errors.New("currency parameter is required")
	ErrInvalidDate          = errors.New("date parameter is required")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	// Portfolio operation errors
	ErrFailedToRetrievePortfolios  = errors.New("failed to retrieve portfolios")
	ErrFailedToGetPortfolioSummary = errors.New("failed to get portfolio summary")
	ErrFailedToGetPortfolioAssets  = errors.New("failed to get portfolio assets")
	ErrFailedToComputeRealizedPnL  = errors.New("failed to compute realized profit and loss")

	// Asset operation errors
	ErrFailedToRetrieveAssets      = errors.New("failed to retrieve assets")
	ErrFailedToRetrieveAssetPrices = errors.New("failed to retrieve asset prices")

	// Transaction operation errors
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveTransaction  = errors.New("failed to retrieve transaction")
	ErrFailedToImportTransactions   = errors.New("failed to import transactions")
	ErrInvalidCSVHeaders            = errors.New("invalid CSV headers")

	// Market data operation errors
	ErrFailedToFetchMarketData = errors.New("failed to fetch market data")
	ErrFailedToRefreshPrices   = errors.New("failed to refresh asset prices")

	// Settings operation errors
	ErrFailedToRetrieveSetting = errors.New("failed to retrieve setting")
	ErrFailedToStoreSetting    = errors.New("failed to store setting")

	// System operation errors
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the data is in an inconsistent state
	// (e.g., a portfolio-asset link exists but the asset doesn't exist).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
