package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/model"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    WithDescription("My description").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID                  string
	Name                string
	Description         string
	IsArchived          bool
	ExcludeFromOverview bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:                  MakeID(),
		Name:                MakePortfolioName("Test Portfolio"),
		Description:         "Test description",
		IsArchived:          false,
		ExcludeFromOverview: false,
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// WithDescription sets a custom description.
func (b *PortfolioBuilder) WithDescription(desc string) *PortfolioBuilder {
	b.Description = desc
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// ExcludedFromOverview marks the portfolio as excluded from overview.
func (b *PortfolioBuilder) ExcludedFromOverview() *PortfolioBuilder {
	b.ExcludeFromOverview = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, is_archived, exclude_from_overview)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.Description, b.IsArchived, b.ExcludeFromOverview)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:                  b.ID,
		Name:                b.Name,
		Description:         b.Description,
		IsArchived:          b.IsArchived,
		ExcludeFromOverview: b.ExcludeFromOverview,
	}
}

// Convenience functions

// CreatePortfolio creates a portfolio with the given name and default values.
//
// Example usage:
//
//	portfolio := testutil.CreatePortfolio(t, db, "My Portfolio")
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// CreatePortfolios creates multiple portfolios with unique names.
//
// Example usage:
//
//	portfolios := testutil.CreatePortfolios(t, db, 5)
//	// Creates 5 portfolios with auto-generated names
func CreatePortfolios(t *testing.T, db *sql.DB, count int) []model.Portfolio {
	t.Helper()

	portfolios := make([]model.Portfolio, count)
	for i := 0; i < count; i++ {
		portfolios[i] = NewPortfolio().Build(t, db)
	}
	return portfolios
}

// CreateArchivedPortfolio creates an archived portfolio.
//
// Example usage:
//
//	portfolio := testutil.CreateArchivedPortfolio(t, db, "Old Portfolio")
func CreateArchivedPortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Archived().Build(t, db)
}

// CreateExcludedPortfolio creates a portfolio excluded from the overview.
//
// Example usage:
//
//	portfolio := testutil.CreateExcludedPortfolio(t, db, "Side Portfolio")
func CreateExcludedPortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).ExcludedFromOverview().Build(t, db)
}

// AssetBuilder provides a fluent interface for creating test assets.
//
// Example usage:
//
//	asset := testutil.NewAsset().
//	    WithCoingeckoID("bitcoin").
//	    WithSymbol("BTC").
//	    Build(t, db)
type AssetBuilder struct {
	ID          string
	CoingeckoID string
	Symbol      string
	Name        string
	Currency    string
}

// NewAsset creates an AssetBuilder with sensible defaults.
func NewAsset() *AssetBuilder {
	return &AssetBuilder{
		ID:          MakeID(),
		CoingeckoID: MakeCoinID("testcoin"),
		Symbol:      MakeSymbol("TST"),
		Name:        "Test Coin",
		Currency:    "usd",
	}
}

// WithID sets a custom ID.
func (b *AssetBuilder) WithID(id string) *AssetBuilder {
	b.ID = id
	return b
}

// WithCoingeckoID sets a custom CoinGecko identifier.
func (b *AssetBuilder) WithCoingeckoID(coingeckoID string) *AssetBuilder {
	b.CoingeckoID = coingeckoID
	return b
}

// WithSymbol sets a custom ticker symbol.
func (b *AssetBuilder) WithSymbol(symbol string) *AssetBuilder {
	b.Symbol = symbol
	return b
}

// WithName sets a custom display name.
func (b *AssetBuilder) WithName(name string) *AssetBuilder {
	b.Name = name
	return b
}

// WithCurrency sets the native quote currency.
func (b *AssetBuilder) WithCurrency(currency string) *AssetBuilder {
	b.Currency = currency
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	query := `
		INSERT INTO asset (id, coingecko_id, symbol, name, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.CoingeckoID, b.Symbol, b.Name, b.Currency)
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:          b.ID,
		CoingeckoID: b.CoingeckoID,
		Symbol:      b.Symbol,
		Name:        b.Name,
		Currency:    b.Currency,
	}
}

// CreateAsset creates an asset with the given CoinGecko ID and default values.
func CreateAsset(t *testing.T, db *sql.DB, coingeckoID string) model.Asset {
	t.Helper()
	return NewAsset().WithCoingeckoID(coingeckoID).Build(t, db)
}

// CreateAssets creates multiple assets with unique CoinGecko IDs.
func CreateAssets(t *testing.T, db *sql.DB, count int) []model.Asset {
	t.Helper()

	assets := make([]model.Asset, count)
	for i := 0; i < count; i++ {
		assets[i] = NewAsset().Build(t, db)
	}
	return assets
}

// PortfolioAssetBuilder provides a fluent interface for creating portfolio-asset links
type PortfolioAssetBuilder struct {
	ID          string
	PortfolioID string
	AssetID     string
}

// NewPortfolioAsset creates a PortfolioAssetBuilder
func NewPortfolioAsset(portfolioID, assetID string) *PortfolioAssetBuilder {
	return &PortfolioAssetBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
	}
}

// WithID sets a custom ID
func (b *PortfolioAssetBuilder) WithID(id string) *PortfolioAssetBuilder {
	b.ID = id
	return b
}

// Build creates the portfolio_asset in the database
func (b *PortfolioAssetBuilder) Build(t *testing.T, db *sql.DB) model.PortfolioAsset {
	t.Helper()

	query := `
		INSERT INTO portfolio_asset (id, portfolio_id, asset_id)
		VALUES (?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.PortfolioID, b.AssetID)
	if err != nil {
		t.Fatalf("Failed to create portfolio_asset: %v", err)
	}

	return model.PortfolioAsset{
		ID:          b.ID,
		PortfolioID: b.PortfolioID,
		AssetID:     b.AssetID,
	}
}

// CreateHolding creates a portfolio, an asset, and the link between them in
// one call. Most transaction and P&L tests start from this shape.
//
// Example usage:
//
//	portfolio, asset, link := testutil.CreateHolding(t, db, "bitcoin")
func CreateHolding(t *testing.T, db *sql.DB, coingeckoID string) (model.Portfolio, model.Asset, model.PortfolioAsset) {
	t.Helper()

	portfolio := NewPortfolio().Build(t, db)
	asset := NewAsset().WithCoingeckoID(coingeckoID).Build(t, db)
	link := NewPortfolioAsset(portfolio.ID, asset.ID).Build(t, db)
	return portfolio, asset, link
}

// TransactionBuilder provides a fluent interface for creating transactions
type TransactionBuilder struct {
	ID               string
	PortfolioAssetID string
	Kind             string
	Quantity         float64
	UnitPrice        float64
	Currency         string
	ExecutedAt       time.Time
	Note             string
}

// NewTransaction creates a TransactionBuilder with defaults
func NewTransaction(portfolioAssetID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:               MakeID(),
		PortfolioAssetID: portfolioAssetID,
		Kind:             "buy",
		Quantity:         1.0,
		UnitPrice:        100.0,
		Currency:         "usd",
		ExecutedAt:       time.Now().UTC(),
	}
}

// WithID sets a custom ID
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.ID = id
	return b
}

// WithKind sets the transaction kind ("buy" or "sell")
func (b *TransactionBuilder) WithKind(kind string) *TransactionBuilder {
	b.Kind = kind
	return b
}

// Buy marks the transaction as a buy
func (b *TransactionBuilder) Buy() *TransactionBuilder {
	b.Kind = "buy"
	return b
}

// Sell marks the transaction as a sell
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.Kind = "sell"
	return b
}

// WithQuantity sets the quantity of units
func (b *TransactionBuilder) WithQuantity(quantity float64) *TransactionBuilder {
	b.Quantity = quantity
	return b
}

// WithUnitPrice sets the price per unit
func (b *TransactionBuilder) WithUnitPrice(price float64) *TransactionBuilder {
	b.UnitPrice = price
	return b
}

// WithCurrency sets the settlement currency
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	b.Currency = currency
	return b
}

// WithExecutedAt sets the execution timestamp
func (b *TransactionBuilder) WithExecutedAt(executedAt time.Time) *TransactionBuilder {
	b.ExecutedAt = executedAt
	return b
}

// WithNote sets a free-form note
func (b *TransactionBuilder) WithNote(note string) *TransactionBuilder {
	b.Note = note
	return b
}

// Build creates the transaction in the database
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	query := `
		INSERT INTO "transaction" (id, portfolio_asset_id, kind, quantity, unit_price, currency, executed_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.PortfolioAssetID, b.Kind, b.Quantity, b.UnitPrice,
		b.Currency, b.ExecutedAt.UTC().Format(time.RFC3339), b.Note)
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	return model.Transaction{
		ID:               b.ID,
		PortfolioAssetID: b.PortfolioAssetID,
		Kind:             b.Kind,
		Quantity:         b.Quantity,
		UnitPrice:        b.UnitPrice,
		Currency:         b.Currency,
		ExecutedAt:       b.ExecutedAt.UTC(),
		Note:             b.Note,
		CreatedAt:        time.Now(),
	}
}

// AssetPriceBuilder provides a fluent interface for creating stored daily prices
type AssetPriceBuilder struct {
	ID       string
	AssetID  string
	Date     time.Time
	Price    float64
	Currency string
}

// NewAssetPrice creates an AssetPriceBuilder
func NewAssetPrice(assetID string) *AssetPriceBuilder {
	return &AssetPriceBuilder{
		ID:       MakeID(),
		AssetID:  assetID,
		Date:     time.Now().UTC(),
		Price:    100.0,
		Currency: "usd",
	}
}

// WithDate sets the price date
func (b *AssetPriceBuilder) WithDate(date time.Time) *AssetPriceBuilder {
	b.Date = date
	return b
}

// WithPrice sets the price
func (b *AssetPriceBuilder) WithPrice(price float64) *AssetPriceBuilder {
	b.Price = price
	return b
}

// WithCurrency sets the quote currency
func (b *AssetPriceBuilder) WithCurrency(currency string) *AssetPriceBuilder {
	b.Currency = currency
	return b
}

// Build creates the asset price in the database
func (b *AssetPriceBuilder) Build(t *testing.T, db *sql.DB) model.AssetPrice {
	t.Helper()

	query := `
		INSERT INTO asset_price (id, asset_id, date, price, currency)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.AssetID, b.Date.Format("2006-01-02"), b.Price, b.Currency)
	if err != nil {
		t.Fatalf("Failed to create asset price: %v", err)
	}

	return model.AssetPrice{
		ID:       b.ID,
		AssetID:  b.AssetID,
		Date:     b.Date,
		Price:    b.Price,
		Currency: b.Currency,
	}
}

// SettingBuilder provides a fluent interface for creating system settings
type SettingBuilder struct {
	Key         string
	Value       string
	IsEncrypted bool
}

// NewSetting creates a SettingBuilder
func NewSetting(key, value string) *SettingBuilder {
	return &SettingBuilder{
		Key:   key,
		Value: value,
	}
}

// Encrypted marks the stored value as encrypted
func (b *SettingBuilder) Encrypted() *SettingBuilder {
	b.IsEncrypted = true
	return b
}

// Build creates the system setting in the database
func (b *SettingBuilder) Build(t *testing.T, db *sql.DB) model.Setting {
	t.Helper()

	query := `
		INSERT INTO system_setting (key, value, is_encrypted, updated_at)
		VALUES (?, ?, ?, ?)
	`

	updatedAt := time.Now().UTC()
	_, err := db.Exec(query, b.Key, b.Value, b.IsEncrypted, updatedAt.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create system setting: %v", err)
	}

	return model.Setting{
		Key:         b.Key,
		Value:       b.Value,
		IsEncrypted: b.IsEncrypted,
		UpdatedAt:   updatedAt,
	}
}
