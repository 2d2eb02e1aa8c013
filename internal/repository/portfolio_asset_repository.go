package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
)

// PortfolioAssetRepository provides data access methods for the
// portfolio_asset link table, which connects portfolios to the assets they
// hold positions in.
type PortfolioAssetRepository struct {
	db *sql.DB
}

// NewPortfolioAssetRepository creates a new PortfolioAssetRepository with the provided database connection.
func NewPortfolioAssetRepository(db *sql.DB) *PortfolioAssetRepository {
	return &PortfolioAssetRepository{db: db}
}

// GetPortfolioAssetOnID retrieves a single link row by its UUID.
// Returns ErrPortfolioAssetNotFound if no row with that ID exists.
func (r *PortfolioAssetRepository) GetPortfolioAssetOnID(portfolioAssetID string) (model.PortfolioAsset, error) {
	query := `
        SELECT id, portfolio_id, asset_id
        FROM portfolio_asset
        WHERE id = ?
    `

	var pa model.PortfolioAsset

	err := r.db.QueryRow(query, portfolioAssetID).Scan(
		&pa.ID,
		&pa.PortfolioID,
		&pa.AssetID,
	)
	if err == sql.ErrNoRows {
		return model.PortfolioAsset{}, apperrors.ErrPortfolioAssetNotFound
	}
	if err != nil {
		return model.PortfolioAsset{}, fmt.Errorf("failed to query portfolio_asset table: %w", err)
	}

	return pa, nil
}

// GetByPortfolioAndAsset retrieves the link row for a portfolio and asset
// pair. Returns ErrPortfolioAssetNotFound if the asset is not held in the
// portfolio.
func (r *PortfolioAssetRepository) GetByPortfolioAndAsset(portfolioID, assetID string) (model.PortfolioAsset, error) {
	query := `
        SELECT id, portfolio_id, asset_id
        FROM portfolio_asset
        WHERE portfolio_id = ? AND asset_id = ?
    `

	var pa model.PortfolioAsset

	err := r.db.QueryRow(query, portfolioID, assetID).Scan(
		&pa.ID,
		&pa.PortfolioID,
		&pa.AssetID,
	)
	if err == sql.ErrNoRows {
		return model.PortfolioAsset{}, apperrors.ErrPortfolioAssetNotFound
	}
	if err != nil {
		return model.PortfolioAsset{}, fmt.Errorf("failed to query portfolio_asset table: %w", err)
	}

	return pa, nil
}

// GetPortfolioAssets retrieves all asset links for a portfolio together with
// asset metadata. Returns an empty slice if the portfolio holds no assets.
func (r *PortfolioAssetRepository) GetPortfolioAssets(portfolioID string) ([]model.PortfolioAssetResponse, error) {
	query := `
        SELECT pa.id, pa.portfolio_id, pa.asset_id, a.coingecko_id, a.symbol, a.name, a.currency
        FROM portfolio_asset pa
        JOIN asset a ON a.id = pa.asset_id
        WHERE pa.portfolio_id = ?
        ORDER BY a.symbol ASC
    `

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_asset table: %w", err)
	}
	defer rows.Close()

	links := []model.PortfolioAssetResponse{}

	for rows.Next() {
		var pa model.PortfolioAssetResponse

		err := rows.Scan(
			&pa.ID,
			&pa.PortfolioID,
			&pa.AssetID,
			&pa.CoingeckoID,
			&pa.Symbol,
			&pa.Name,
			&pa.Currency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_asset table results: %w", err)
		}

		links = append(links, pa)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_asset table: %w", err)
	}

	return links, nil
}

// GetAssetsOnPortfolioIDs retrieves all linked assets for the given
// portfolios in one query.
//
// Returns:
//   - assetsByPortfolio: map[portfolioID][]Asset
//   - portfolioAssetToPortfolio: map[portfolioAssetID]portfolioID lookup table
//   - paIDs: slice of all portfolio_asset IDs
//
// If the input slice is empty, returns all nil values.
func (r *PortfolioAssetRepository) GetAssetsOnPortfolioIDs(portfolioIDs []string) (map[string][]model.Asset, map[string]string, []string, error) {
	if len(portfolioIDs) == 0 {
		return nil, nil, nil, nil
	}

	portfolioPlaceholders := make([]string, len(portfolioIDs))
	for i := range portfolioPlaceholders {
		portfolioPlaceholders[i] = "?"
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
        SELECT pa.id, pa.portfolio_id, a.id, a.coingecko_id, a.symbol, a.name, a.currency
        FROM portfolio_asset pa
        JOIN asset a ON a.id = pa.asset_id
        WHERE pa.portfolio_id IN (` + strings.Join(portfolioPlaceholders, ",") + `)
    `

	args := make([]any, len(portfolioIDs))
	for i, id := range portfolioIDs {
		args[i] = id
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to query portfolio_asset table: %w", err)
	}
	defer rows.Close()

	assetsByPortfolio := make(map[string][]model.Asset)
	portfolioAssetToPortfolio := make(map[string]string)
	var paIDs []string

	for rows.Next() {
		var paID string
		var portfolioID string
		var a model.Asset

		err := rows.Scan(
			&paID,
			&portfolioID,
			&a.ID,
			&a.CoingeckoID,
			&a.Symbol,
			&a.Name,
			&a.Currency,
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan portfolio_asset table results: %w", err)
		}

		assetsByPortfolio[portfolioID] = append(assetsByPortfolio[portfolioID], a)
		portfolioAssetToPortfolio[paID] = portfolioID
		paIDs = append(paIDs, paID)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating portfolio_asset table: %w", err)
	}

	return assetsByPortfolio, portfolioAssetToPortfolio, paIDs, nil
}

// InsertPortfolioAsset links an asset to a portfolio and returns the created
// row. Returns ErrDuplicateEntry when the pair is already linked.
func (r *PortfolioAssetRepository) InsertPortfolioAsset(ctx context.Context, portfolioID, assetID string) (model.PortfolioAsset, error) {
	query := `
        INSERT INTO portfolio_asset (id, portfolio_id, asset_id)
        VALUES (?, ?, ?)
    `

	pa := model.PortfolioAsset{
		ID:          uuid.New().String(),
		PortfolioID: portfolioID,
		AssetID:     assetID,
	}

	_, err := r.db.ExecContext(ctx, query,
		pa.ID,
		pa.PortfolioID,
		pa.AssetID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.PortfolioAsset{}, apperrors.ErrDuplicateEntry
		}
		return model.PortfolioAsset{}, fmt.Errorf("failed to insert portfolio_asset: %w", err)
	}

	return pa, nil
}

// DeletePortfolioAsset removes a link row. Transactions under it are removed
// through ON DELETE CASCADE, so callers must apply their guards first.
// Returns ErrPortfolioAssetNotFound if no row was deleted.
func (r *PortfolioAssetRepository) DeletePortfolioAsset(ctx context.Context, portfolioAssetID string) error {
	query := `DELETE FROM portfolio_asset WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, portfolioAssetID)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio_asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrPortfolioAssetNotFound
	}

	return nil
}

// HasTransactions reports whether any transactions are recorded under the
// link row. Used as a guard before unlinking an asset from a portfolio.
func (r *PortfolioAssetRepository) HasTransactions(portfolioAssetID string) (bool, error) {
	query := `SELECT COUNT(*) FROM "transaction" WHERE portfolio_asset_id = ?`

	var count int
	if err := r.db.QueryRow(query, portfolioAssetID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query transaction table: %w", err)
	}

	return count > 0, nil
}
