package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
)

// TransactionRepository provides data access methods for the transaction
// table. It handles the trade ledger: buys and sells recorded against
// portfolio positions.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetTransactionsOnFilter retrieves transactions matching the filter
// criteria, across all portfolios when no filter fields are set. Results are
// enriched with asset metadata and sorted by execution time ascending.
func (r *TransactionRepository) GetTransactionsOnFilter(filter model.TransactionFilter) ([]model.TransactionResponse, error) {
	query := `
        SELECT
            t.id,
            t.portfolio_asset_id,
            pa.asset_id,
            a.coingecko_id,
            a.symbol,
            t.kind,
            t.quantity,
            t.unit_price,
            t.currency,
            t.executed_at,
            t.note,
            t.created_at
        FROM "transaction" t
        JOIN portfolio_asset pa ON t.portfolio_asset_id = pa.id
        JOIN asset a ON pa.asset_id = a.id
        WHERE 1=1
    `

	var args []any

	if filter.PortfolioID != "" {
		query += " AND pa.portfolio_id = ?"
		args = append(args, filter.PortfolioID)
	}

	if filter.PortfolioAssetID != "" {
		query += " AND t.portfolio_asset_id = ?"
		args = append(args, filter.PortfolioAssetID)
	}

	if !filter.StartDate.IsZero() {
		query += " AND t.executed_at >= ?"
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339))
	}

	if !filter.EndDate.IsZero() {
		query += " AND t.executed_at <= ?"
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339))
	}

	query += " ORDER BY t.executed_at ASC, t.created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactions := []model.TransactionResponse{}

	for rows.Next() {
		var executedAtStr, createdAtStr string
		var t model.TransactionResponse

		err := rows.Scan(
			&t.ID,
			&t.PortfolioAssetID,
			&t.AssetID,
			&t.CoingeckoID,
			&t.Symbol,
			&t.Kind,
			&t.Quantity,
			&t.UnitPrice,
			&t.Currency,
			&executedAtStr,
			&t.Note,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.ExecutedAt, err = ParseTime(executedAtStr)
		if err != nil || t.ExecutedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		t.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil || t.CreatedAt.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactions, nil
}

// GetTransaction retrieves a single transaction by its UUID, enriched with
// asset metadata. Returns ErrTransactionNotFound if no row with that ID
// exists.
func (r *TransactionRepository) GetTransaction(transactionID string) (model.TransactionResponse, error) {
	query := `
        SELECT
            t.id,
            t.portfolio_asset_id,
            pa.asset_id,
            a.coingecko_id,
            a.symbol,
            t.kind,
            t.quantity,
            t.unit_price,
            t.currency,
            t.executed_at,
            t.note,
            t.created_at
        FROM "transaction" t
        JOIN portfolio_asset pa ON t.portfolio_asset_id = pa.id
        JOIN asset a ON pa.asset_id = a.id
        WHERE t.id = ?
    `

	var executedAtStr, createdAtStr string
	var t model.TransactionResponse

	err := r.db.QueryRow(query, transactionID).Scan(
		&t.ID,
		&t.PortfolioAssetID,
		&t.AssetID,
		&t.CoingeckoID,
		&t.Symbol,
		&t.Kind,
		&t.Quantity,
		&t.UnitPrice,
		&t.Currency,
		&executedAtStr,
		&t.Note,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return model.TransactionResponse{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.TransactionResponse{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.ExecutedAt, err = ParseTime(executedAtStr)
	if err != nil || t.ExecutedAt.IsZero() {
		return model.TransactionResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil || t.CreatedAt.IsZero() {
		return model.TransactionResponse{}, fmt.Errorf("failed to parse date: %w", err)
	}

	return t, nil
}

// GetLedgerOnPortfolioID retrieves the full trade ledger of a portfolio
// grouped by asset, in execution order. Ties on execution time are broken by
// insertion order so replays of the ledger are deterministic.
//
// Returns:
//   - transactionsByAsset: map[assetID][]Transaction, each slice sorted by
//     executed_at ascending
//   - assetsByID: map[assetID]Asset metadata for every asset in the ledger
//
// Both maps are empty when the portfolio has no transactions.
func (r *TransactionRepository) GetLedgerOnPortfolioID(portfolioID string) (map[string][]model.Transaction, map[string]model.Asset, error) {
	query := `
        SELECT
            t.id,
            t.portfolio_asset_id,
            t.kind,
            t.quantity,
            t.unit_price,
            t.currency,
            t.executed_at,
            t.note,
            pa.asset_id,
            a.coingecko_id,
            a.symbol,
            a.name,
            a.currency
        FROM "transaction" t
        JOIN portfolio_asset pa ON t.portfolio_asset_id = pa.id
        JOIN asset a ON pa.asset_id = a.id
        WHERE pa.portfolio_id = ?
        ORDER BY t.executed_at ASC, t.created_at ASC
    `

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	transactionsByAsset := make(map[string][]model.Transaction)
	assetsByID := make(map[string]model.Asset)

	for rows.Next() {
		var executedAtStr string
		var t model.Transaction
		var a model.Asset

		err := rows.Scan(
			&t.ID,
			&t.PortfolioAssetID,
			&t.Kind,
			&t.Quantity,
			&t.UnitPrice,
			&t.Currency,
			&executedAtStr,
			&t.Note,
			&a.ID,
			&a.CoingeckoID,
			&a.Symbol,
			&a.Name,
			&a.Currency,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan transaction table results: %w", err)
		}

		t.ExecutedAt, err = ParseTime(executedAtStr)
		if err != nil || t.ExecutedAt.IsZero() {
			return nil, nil, fmt.Errorf("failed to parse date: %w", err)
		}

		transactionsByAsset[a.ID] = append(transactionsByAsset[a.ID], t)
		assetsByID[a.ID] = a
	}

	if err = rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return transactionsByAsset, assetsByID, nil
}

// InsertTransaction inserts a single transaction row.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
        INSERT INTO "transaction" (id, portfolio_asset_id, kind, quantity, unit_price, currency, executed_at, note, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.PortfolioAssetID,
		t.Kind,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.ExecutedAt.UTC().Format(time.RFC3339),
		t.Note,
		t.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// InsertTransactions inserts a batch of transaction rows atomically. Either
// every row is stored or none are, so a failed import never leaves a partial
// ledger behind.
func (r *TransactionRepository) InsertTransactions(ctx context.Context, transactions []model.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
        INSERT INTO "transaction" (id, portfolio_asset_id, kind, quantity, unit_price, currency, executed_at, note, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range transactions {
		_, err := stmt.ExecContext(ctx,
			t.ID,
			t.PortfolioAssetID,
			t.Kind,
			t.Quantity,
			t.UnitPrice,
			t.Currency,
			t.ExecutedAt.UTC().Format(time.RFC3339),
			t.Note,
			t.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction batch: %w", err)
	}

	return nil
}

// UpdateTransaction updates the mutable fields of an existing transaction.
// Returns ErrTransactionNotFound if no row was updated.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	query := `
        UPDATE "transaction"
        SET kind = ?, quantity = ?, unit_price = ?, currency = ?, executed_at = ?, note = ?
        WHERE id = ?
    `

	result, err := r.db.ExecContext(ctx, query,
		t.Kind,
		t.Quantity,
		t.UnitPrice,
		t.Currency,
		t.ExecutedAt.UTC().Format(time.RFC3339),
		t.Note,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// DeleteTransaction removes a transaction row.
// Returns ErrTransactionNotFound if no row was deleted.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	query := `DELETE FROM "transaction" WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}

	return nil
}

// HoldingsOnPortfolioAsset returns the recorded net quantity held under a
// link row: the sum of buy quantities minus the sum of sell quantities.
func (r *TransactionRepository) HoldingsOnPortfolioAsset(portfolioAssetID string) (float64, error) {
	query := `
        SELECT COALESCE(SUM(CASE WHEN kind = 'buy' THEN quantity ELSE -quantity END), 0)
        FROM "transaction"
        WHERE portfolio_asset_id = ?
    `

	var holdings float64
	if err := r.db.QueryRow(query, portfolioAssetID).Scan(&holdings); err != nil {
		return 0, fmt.Errorf("failed to query transaction table: %w", err)
	}

	return holdings, nil
}

// GetOldestTransactionOnAsset finds the execution time of the earliest
// transaction recorded for an asset across all portfolios. Used to size the
// price history backfill window so stored prices cover the holding period.
//
// Returns time.Time{} (zero value) if the asset has no transactions or the
// query fails.
func (r *TransactionRepository) GetOldestTransactionOnAsset(assetID string) time.Time {
	query := `
        SELECT MIN(t.executed_at)
        FROM "transaction" t
        JOIN portfolio_asset pa ON t.portfolio_asset_id = pa.id
        WHERE pa.asset_id = ?
    `

	var oldestStr sql.NullString

	err := r.db.QueryRow(query, assetID).Scan(&oldestStr)
	if err != nil || !oldestStr.Valid {
		return time.Time{}
	}

	oldest, err := ParseTime(oldestStr.String)
	if err != nil {
		return time.Time{}
	}

	return oldest
}
