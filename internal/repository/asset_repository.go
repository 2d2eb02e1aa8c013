package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
)

// AssetRepository provides data access methods for the asset and asset_price
// tables. It handles asset metadata, catalogue seeding, and historical price
// data.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetAssets retrieves all assets together with their most recent stored price.
// Assets without any price rows are still returned, with a zero latest price.
func (r *AssetRepository) GetAssets() ([]model.AssetResponse, error) {
	query := `
        SELECT a.id, a.coingecko_id, a.symbol, a.name, a.currency, ap.price, ap.date
        FROM asset a
        LEFT JOIN asset_price ap ON a.id = ap.asset_id
        LEFT JOIN (
            SELECT asset_id, MAX(date) as latest_date
            FROM asset_price
            GROUP BY asset_id
        ) latest ON ap.asset_id = latest.asset_id
        WHERE ap.date IS NULL OR ap.date = latest.latest_date
        ORDER BY a.symbol ASC
      `

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.AssetResponse{}

	for rows.Next() {
		var price sql.NullFloat64
		var dateStr sql.NullString
		var a model.AssetResponse

		err := rows.Scan(
			&a.ID,
			&a.CoingeckoID,
			&a.Symbol,
			&a.Name,
			&a.Currency,
			&price,
			&dateStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset table results: %w", err)
		}

		if price.Valid {
			a.LatestPrice = price.Float64
		}
		if dateStr.Valid {
			a.LatestPriceDate = dateStr.String
		}

		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// GetAssetOnID retrieves a single asset by its UUID.
// Returns ErrAssetNotFound if no asset with that ID exists.
func (r *AssetRepository) GetAssetOnID(assetID string) (model.Asset, error) {
	query := `
        SELECT id, coingecko_id, symbol, name, currency, created_at
        FROM asset
        WHERE id = ?
    `
	var createdAtStr string
	var a model.Asset

	err := r.db.QueryRow(query, assetID).Scan(
		&a.ID,
		&a.CoingeckoID,
		&a.Symbol,
		&a.Name,
		&a.Currency,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset table: %w", err)
	}

	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return a, nil
}

// GetAssetByCoingeckoID retrieves a single asset by its CoinGecko identifier.
// Returns ErrAssetNotFound if no asset with that identifier exists.
func (r *AssetRepository) GetAssetByCoingeckoID(coingeckoID string) (model.Asset, error) {
	query := `
        SELECT id, coingecko_id, symbol, name, currency, created_at
        FROM asset
        WHERE coingecko_id = ?
    `
	var createdAtStr string
	var a model.Asset

	err := r.db.QueryRow(query, coingeckoID).Scan(
		&a.ID,
		&a.CoingeckoID,
		&a.Symbol,
		&a.Name,
		&a.Currency,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to query asset table: %w", err)
	}

	a.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Asset{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return a, nil
}

// CreateAsset inserts a new asset row and returns it with the generated UUID.
// Returns ErrDuplicateEntry when an asset with the same coingecko_id exists.
func (r *AssetRepository) CreateAsset(ctx context.Context, a model.Asset) (model.Asset, error) {
	query := `
        INSERT INTO asset (id, coingecko_id, symbol, name, currency)
        VALUES (?, ?, ?, ?, ?)
    `

	a.ID = uuid.New().String()

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.CoingeckoID,
		a.Symbol,
		a.Name,
		a.Currency,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.Asset{}, apperrors.ErrDuplicateEntry
		}
		return model.Asset{}, fmt.Errorf("failed to insert asset: %w", err)
	}

	return r.GetAssetOnID(a.ID)
}

// InsertIfMissing inserts a catalogue asset unless one with the same
// coingecko_id already exists. Reports whether a row was inserted.
func (r *AssetRepository) InsertIfMissing(ctx context.Context, a model.Asset) (bool, error) {
	query := `
        INSERT INTO asset (id, coingecko_id, symbol, name, currency)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(coingecko_id) DO NOTHING
    `

	result, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		a.CoingeckoID,
		a.Symbol,
		a.Name,
		a.Currency,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// UpdateAsset updates the display fields of an existing asset. The
// coingecko_id is immutable once created.
// Returns ErrAssetNotFound if no row was updated.
func (r *AssetRepository) UpdateAsset(ctx context.Context, a model.Asset) error {
	query := `
        UPDATE asset
        SET symbol = ?, name = ?, currency = ?
        WHERE id = ?
    `

	result, err := r.db.ExecContext(ctx, query,
		a.Symbol,
		a.Name,
		a.Currency,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}

	return nil
}

// DeleteAsset removes an asset and its price history.
// Returns ErrAssetNotFound if no row was deleted. Callers must verify the
// asset is not linked to any portfolio first.
func (r *AssetRepository) DeleteAsset(ctx context.Context, assetID string) error {
	query := `DELETE FROM asset WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}

	return nil
}

// CountPortfolioLinks returns how many portfolio_asset rows reference the
// asset. Used as a guard before deletion.
func (r *AssetRepository) CountPortfolioLinks(assetID string) (int, error) {
	query := `SELECT COUNT(*) FROM portfolio_asset WHERE asset_id = ?`

	var count int
	if err := r.db.QueryRow(query, assetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query portfolio_asset table: %w", err)
	}

	return count, nil
}

// UpsertPrice stores a daily closing price for an asset, replacing any
// existing row for the same date.
func (r *AssetRepository) UpsertPrice(ctx context.Context, assetID string, date time.Time, price float64, currency string) error {
	query := `
        INSERT INTO asset_price (id, asset_id, date, price, currency)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(asset_id, date) DO UPDATE SET price = excluded.price, currency = excluded.currency
    `

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		assetID,
		date.Format("2006-01-02"),
		price,
		currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset_price: %w", err)
	}

	return nil
}

// GetPrices retrieves price rows for one asset within the inclusive date
// range, sorted by date ascending. Returns an empty slice when no prices are
// stored for the range.
func (r *AssetRepository) GetPrices(assetID string, startDate, endDate time.Time) ([]model.AssetPrice, error) {
	query := `
        SELECT id, asset_id, date, price, currency
        FROM asset_price
        WHERE asset_id = ?
        AND date >= ?
        AND date <= ?
        ORDER BY date ASC
    `

	rows, err := r.db.Query(query,
		assetID,
		startDate.Format("2006-01-02"),
		endDate.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.AssetPrice{}

	for rows.Next() {
		var dateStr string
		var ap model.AssetPrice

		err := rows.Scan(
			&ap.ID,
			&ap.AssetID,
			&dateStr,
			&ap.Price,
			&ap.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset_price table results: %w", err)
		}

		ap.Date, err = ParseTime(dateStr)
		if err != nil || ap.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		prices = append(prices, ap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_price table: %w", err)
	}

	return prices, nil
}

// GetLatestPricesOnAssetIDs returns the most recent stored price per asset
// for the given asset IDs. Assets without prices are absent from the map.
func (r *AssetRepository) GetLatestPricesOnAssetIDs(assetIDs []string) (map[string]model.AssetPrice, error) {
	if len(assetIDs) == 0 {
		return make(map[string]model.AssetPrice), nil
	}

	pricePlaceholders := make([]string, len(assetIDs))
	for i := range pricePlaceholders {
		pricePlaceholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
        SELECT ap.id, ap.asset_id, ap.date, ap.price, ap.currency
        FROM asset_price ap
        INNER JOIN (
            SELECT asset_id, MAX(date) as latest_date
            FROM asset_price
            GROUP BY asset_id
        ) latest ON ap.asset_id = latest.asset_id AND ap.date = latest.latest_date
        WHERE ap.asset_id IN (` + strings.Join(pricePlaceholders, ",") + `)
    `

	args := make([]any, len(assetIDs))
	for i, id := range assetIDs {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset_price table: %w", err)
	}
	defer rows.Close()

	pricesByAsset := make(map[string]model.AssetPrice)

	for rows.Next() {
		var dateStr string
		var ap model.AssetPrice

		err := rows.Scan(
			&ap.ID,
			&ap.AssetID,
			&dateStr,
			&ap.Price,
			&ap.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset_price table results: %w", err)
		}

		ap.Date, err = ParseTime(dateStr)
		if err != nil || ap.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		pricesByAsset[ap.AssetID] = ap
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset_price table: %w", err)
	}

	return pricesByAsset, nil
}
