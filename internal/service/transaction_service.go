package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/fifo"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// csvImportHeader is the required column order for transaction imports. A
// trailing note column is accepted but optional.
var csvImportHeader = []string{"coingecko_id", "kind", "quantity", "unit_price", "currency", "executed_at"}

// TransactionService handles trade ledger business logic operations.
type TransactionService struct {
	transactionRepo    *repository.TransactionRepository
	portfolioAssetRepo *repository.PortfolioAssetRepository
	assetRepo          *repository.AssetRepository
}

// NewTransactionService creates a new TransactionService with the provided repository dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	portfolioAssetRepo *repository.PortfolioAssetRepository,
	assetRepo *repository.AssetRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo:    transactionRepo,
		portfolioAssetRepo: portfolioAssetRepo,
		assetRepo:          assetRepo,
	}
}

// GetTransactionsOnFilter retrieves transactions matching the filter,
// enriched with asset metadata and ordered ascending by execution time.
func (s *TransactionService) GetTransactionsOnFilter(filter model.TransactionFilter) ([]model.TransactionResponse, error) {
	return s.transactionRepo.GetTransactionsOnFilter(filter)
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(transactionID string) (model.TransactionResponse, error) {
	return s.transactionRepo.GetTransaction(transactionID)
}

// CreateTransaction records a buy or sell against a portfolio position.
// The portfolio-asset link must exist. Sells are rejected with
// ErrInsufficientHoldings when the recorded holdings cannot cover the
// quantity; the tolerance matches the ledger processor's epsilon so dust
// positions can still be sold off.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (*model.Transaction, error) {
	if _, err := s.portfolioAssetRepo.GetPortfolioAssetOnID(req.PortfolioAssetID); err != nil {
		return nil, err
	}

	if req.Kind == "sell" {
		holdings, err := s.transactionRepo.HoldingsOnPortfolioAsset(req.PortfolioAssetID)
		if err != nil {
			return nil, err
		}
		if req.Quantity > holdings+fifo.Epsilon {
			return nil, apperrors.ErrInsufficientHoldings
		}
	}

	executedAt, err := validation.ParseTime(req.ExecutedAt)
	if err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		ID:               uuid.New().String(),
		PortfolioAssetID: req.PortfolioAssetID,
		Kind:             req.Kind,
		Quantity:         req.Quantity,
		UnitPrice:        req.UnitPrice,
		Currency:         strings.ToLower(req.Currency),
		ExecutedAt:       executedAt,
		Note:             req.Note,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.transactionRepo.InsertTransaction(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return transaction, nil
}

// UpdateTransaction applies the provided fields to an existing transaction
// and returns the updated record.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (model.TransactionResponse, error) {
	existing, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return model.TransactionResponse{}, err
	}

	updated := model.Transaction{
		ID:               existing.ID,
		PortfolioAssetID: existing.PortfolioAssetID,
		Kind:             existing.Kind,
		Quantity:         existing.Quantity,
		UnitPrice:        existing.UnitPrice,
		Currency:         existing.Currency,
		ExecutedAt:       existing.ExecutedAt,
		Note:             existing.Note,
	}

	if req.Kind != nil {
		updated.Kind = *req.Kind
	}
	if req.Quantity != nil {
		updated.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		updated.UnitPrice = *req.UnitPrice
	}
	if req.Currency != nil {
		updated.Currency = strings.ToLower(*req.Currency)
	}
	if req.ExecutedAt != nil {
		executedAt, err := validation.ParseTime(*req.ExecutedAt)
		if err != nil {
			return model.TransactionResponse{}, err
		}
		updated.ExecutedAt = executedAt
	}
	if req.Note != nil {
		updated.Note = *req.Note
	}

	if err := s.transactionRepo.UpdateTransaction(ctx, updated); err != nil {
		return model.TransactionResponse{}, err
	}

	return s.transactionRepo.GetTransaction(transactionID)
}

// DeleteTransaction removes a transaction from the ledger.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	return s.transactionRepo.DeleteTransaction(ctx, transactionID)
}

// LedgerByAsset loads the complete trade ledger of a portfolio and groups it
// for the FIFO processor: one chronologically ordered transaction slice per
// asset, keyed by asset UUID, plus the asset metadata for each key. The
// processor input uses the CoinGecko identifier as the asset tag so warnings
// name something recognisable.
func (s *TransactionService) LedgerByAsset(portfolioID string) (map[string][]fifo.Transaction, map[string]model.Asset, error) {
	transactionsByAsset, assetsByID, err := s.transactionRepo.GetLedgerOnPortfolioID(portfolioID)
	if err != nil {
		return nil, nil, err
	}

	ledger := make(map[string][]fifo.Transaction, len(transactionsByAsset))

	for assetID, transactions := range transactionsByAsset {
		asset := assetsByID[assetID]
		converted := make([]fifo.Transaction, len(transactions))

		for i, t := range transactions {
			converted[i] = fifo.Transaction{
				Kind:      fifo.Kind(t.Kind),
				AssetID:   asset.CoingeckoID,
				Quantity:  t.Quantity,
				UnitPrice: t.UnitPrice,
				Currency:  t.Currency,
				Timestamp: t.ExecutedAt,
			}
		}

		ledger[assetID] = converted
	}

	return ledger, assetsByID, nil
}

// ImportCSV ingests exchange-export rows into a portfolio's ledger.
//
// The expected header is:
//
//	coingecko_id,kind,quantity,unit_price,currency,executed_at[,note]
//
// Unknown assets and malformed rows are reported per line and skipped;
// accepted rows reference assets by their CoinGecko identifier and are
// linked into the portfolio automatically when no link exists yet. All
// accepted rows are inserted in a single database transaction, so an insert
// failure imports nothing.
func (s *TransactionService) ImportCSV(ctx context.Context, portfolioID string, reader io.Reader) (model.ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err != nil {
		return model.ImportResult{}, apperrors.ErrInvalidCSVHeaders
	}
	if err := validateImportHeader(header); err != nil {
		return model.ImportResult{}, err
	}
	hasNote := len(header) == len(csvImportHeader)+1

	var result model.ImportResult
	var accepted []model.Transaction

	// UUID lookups are cached per coingecko_id so a large export does not
	// query the asset table once per row.
	assetCache := make(map[string]model.Asset)
	linkCache := make(map[string]string)

	now := time.Now().UTC()
	line := 1

	for {
		line++

		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, model.ImportRowError{Line: line, Message: err.Error()})
			continue
		}

		transaction, rowErr := s.parseImportRow(ctx, portfolioID, record, hasNote, assetCache, linkCache)
		if rowErr != "" {
			result.Skipped++
			result.Errors = append(result.Errors, model.ImportRowError{Line: line, Message: rowErr})
			continue
		}

		transaction.ID = uuid.New().String()
		transaction.CreatedAt = now
		accepted = append(accepted, transaction)
	}

	if err := s.transactionRepo.InsertTransactions(ctx, accepted); err != nil {
		return model.ImportResult{}, apperrors.ErrFailedToImportTransactions
	}

	result.Imported = len(accepted)
	return result, nil
}

// parseImportRow validates one CSV record and resolves its asset and
// portfolio link. Returns a non-empty message describing the first problem
// found, or the transaction ready for insertion.
func (s *TransactionService) parseImportRow(
	ctx context.Context,
	portfolioID string,
	record []string,
	hasNote bool,
	assetCache map[string]model.Asset,
	linkCache map[string]string,
) (model.Transaction, string) {
	coingeckoID := strings.TrimSpace(record[0])
	kind := strings.ToLower(strings.TrimSpace(record[1]))
	currency := strings.ToLower(strings.TrimSpace(record[4]))

	if coingeckoID == "" {
		return model.Transaction{}, "coingecko_id is required"
	}
	if !validation.ValidKind[kind] {
		return model.Transaction{}, fmt.Sprintf("invalid kind: %s", record[1])
	}

	quantity, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil || quantity <= 0 {
		return model.Transaction{}, fmt.Sprintf("invalid quantity: %s", record[2])
	}

	unitPrice, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil || unitPrice <= 0 {
		return model.Transaction{}, fmt.Sprintf("invalid unit_price: %s", record[3])
	}

	if !validation.ValidCurrency[currency] {
		return model.Transaction{}, fmt.Sprintf("unsupported currency: %s", record[4])
	}

	executedAt, err := validation.ParseTime(strings.TrimSpace(record[5]))
	if err != nil {
		return model.Transaction{}, fmt.Sprintf("invalid executed_at: %s", record[5])
	}

	asset, ok := assetCache[coingeckoID]
	if !ok {
		asset, err = s.assetRepo.GetAssetByCoingeckoID(coingeckoID)
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			return model.Transaction{}, fmt.Sprintf("unknown asset: %s", coingeckoID)
		}
		if err != nil {
			return model.Transaction{}, err.Error()
		}
		assetCache[coingeckoID] = asset
	}

	portfolioAssetID, ok := linkCache[coingeckoID]
	if !ok {
		link, err := s.portfolioAssetRepo.GetByPortfolioAndAsset(portfolioID, asset.ID)
		if errors.Is(err, apperrors.ErrPortfolioAssetNotFound) {
			link, err = s.portfolioAssetRepo.InsertPortfolioAsset(ctx, portfolioID, asset.ID)
		}
		if err != nil {
			return model.Transaction{}, err.Error()
		}
		portfolioAssetID = link.ID
		linkCache[coingeckoID] = portfolioAssetID
	}

	transaction := model.Transaction{
		PortfolioAssetID: portfolioAssetID,
		Kind:             kind,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		Currency:         currency,
		ExecutedAt:       executedAt,
	}
	if hasNote && len(record) > len(csvImportHeader) {
		transaction.Note = strings.TrimSpace(record[len(csvImportHeader)])
	}

	return transaction, ""
}

// validateImportHeader checks the CSV header row against the expected
// columns. Column names are matched case-insensitively.
func validateImportHeader(header []string) error {
	if len(header) < len(csvImportHeader) || len(header) > len(csvImportHeader)+1 {
		return apperrors.ErrInvalidCSVHeaders
	}

	for i, want := range csvImportHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return apperrors.ErrInvalidCSVHeaders
		}
	}

	if len(header) == len(csvImportHeader)+1 && !strings.EqualFold(strings.TrimSpace(header[len(csvImportHeader)]), "note") {
		return apperrors.ErrInvalidCSVHeaders
	}

	return nil
}
