package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/fifo"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// maxParallelAssets bounds the number of concurrent FIFO computations per
// request. The processor is CPU-bound and fast, so a small pool is enough.
const maxParallelAssets = 8

// PnLService computes realized profit and loss figures by replaying trade
// ledgers through the FIFO processor, one asset at a time.
type PnLService struct {
	portfolioRepo      *repository.PortfolioRepository
	assetRepo          *repository.AssetRepository
	transactionService *TransactionService
	logger             *zap.Logger
}

// NewPnLService creates a new PnLService with the provided dependencies.
func NewPnLService(
	portfolioRepo *repository.PortfolioRepository,
	assetRepo *repository.AssetRepository,
	transactionService *TransactionService,
	logger *zap.Logger,
) *PnLService {
	return &PnLService{
		portfolioRepo:      portfolioRepo,
		assetRepo:          assetRepo,
		transactionService: transactionService,
		logger:             logger,
	}
}

// RealizedForPortfolio replays the whole trade ledger of a portfolio and
// returns per-asset FIFO results plus portfolio totals. Assets are computed
// in parallel and returned sorted by symbol, so the output is deterministic
// for a given ledger. All processor warnings are logged and included in the
// response; none of them fail the computation.
func (s *PnLService) RealizedForPortfolio(ctx context.Context, portfolioID, reportingCurrency string) (model.PortfolioRealizedPnL, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return model.PortfolioRealizedPnL{}, err
	}

	reportingCurrency = normalizeCurrency(reportingCurrency)
	if !validation.ValidCurrency[reportingCurrency] {
		return model.PortfolioRealizedPnL{}, apperrors.ErrUnsupportedCurrency
	}

	ledger, assets, err := s.transactionService.LedgerByAsset(portfolioID)
	if err != nil {
		return model.PortfolioRealizedPnL{}, err
	}

	assetIDs := make([]string, 0, len(ledger))
	for assetID := range ledger {
		assetIDs = append(assetIDs, assetID)
	}
	slices.SortFunc(assetIDs, func(a, b string) int {
		return strings.Compare(assets[a].Symbol, assets[b].Symbol)
	})

	results := make([]model.AssetRealizedPnL, len(assetIDs))
	warningsPerAsset := make([][]fifo.Warning, len(assetIDs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelAssets)

	for i, assetID := range assetIDs {
		i, assetID := i, assetID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			result, warnings := fifo.Compute(ledger[assetID], reportingCurrency)
			asset := assets[assetID]

			results[i] = model.AssetRealizedPnL{
				AssetID:            asset.ID,
				CoingeckoID:        asset.CoingeckoID,
				Symbol:             asset.Symbol,
				RealizedPnL:        round(result.RealizedPnL),
				RemainingLots:      result.RemainingLots,
				RemainingCostBasis: round(result.RemainingCostBasis),
				ProcessedSellCount: result.ProcessedSellCount,
			}
			warningsPerAsset[i] = warnings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.PortfolioRealizedPnL{}, err
	}

	response := model.PortfolioRealizedPnL{
		PortfolioID: portfolioID,
		Currency:    reportingCurrency,
		Assets:      results,
	}

	for i := range results {
		response.TotalRealizedPnL += results[i].RealizedPnL
		response.TotalRemainingBasis += results[i].RemainingCostBasis
		response.TotalProcessedSells += results[i].ProcessedSellCount
		response.Warnings = append(response.Warnings, s.collectWarnings(portfolioID, warningsPerAsset[i])...)
	}

	response.TotalRealizedPnL = round(response.TotalRealizedPnL)
	response.TotalRemainingBasis = round(response.TotalRemainingBasis)
	response.FormattedRealizedPnL = formatMoney(response.TotalRealizedPnL, reportingCurrency)

	return response, nil
}

// RealizedForAsset replays the ledger of a single asset within a portfolio.
// An asset with no transactions yields a zero result, not an error.
func (s *PnLService) RealizedForAsset(ctx context.Context, portfolioID, assetID, reportingCurrency string) (model.AssetRealizedPnLDetail, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return model.AssetRealizedPnLDetail{}, err
	}

	asset, err := s.assetRepo.GetAssetOnID(assetID)
	if err != nil {
		return model.AssetRealizedPnLDetail{}, err
	}

	reportingCurrency = normalizeCurrency(reportingCurrency)
	if !validation.ValidCurrency[reportingCurrency] {
		return model.AssetRealizedPnLDetail{}, apperrors.ErrUnsupportedCurrency
	}

	ledger, _, err := s.transactionService.LedgerByAsset(portfolioID)
	if err != nil {
		return model.AssetRealizedPnLDetail{}, err
	}

	result, warnings := fifo.Compute(ledger[assetID], reportingCurrency)

	detail := model.AssetRealizedPnLDetail{
		PortfolioID: portfolioID,
		Currency:    reportingCurrency,
		AssetRealizedPnL: model.AssetRealizedPnL{
			AssetID:            asset.ID,
			CoingeckoID:        asset.CoingeckoID,
			Symbol:             asset.Symbol,
			RealizedPnL:        round(result.RealizedPnL),
			RemainingLots:      result.RemainingLots,
			RemainingCostBasis: round(result.RemainingCostBasis),
			ProcessedSellCount: result.ProcessedSellCount,
		},
		Warnings: s.collectWarnings(portfolioID, warnings),
	}

	return detail, nil
}

// collectWarnings converts processor warnings to their API shape and logs
// each one. Oversells and currency mismatches are data quality signals the
// operator should see even when no client inspects the response.
func (s *PnLService) collectWarnings(portfolioID string, warnings []fifo.Warning) []model.PnLWarning {
	if len(warnings) == 0 {
		return nil
	}

	collected := make([]model.PnLWarning, len(warnings))

	for i, w := range warnings {
		collected[i] = model.PnLWarning{
			Code:        string(w.Code),
			CoingeckoID: w.AssetID,
			Message:     w.Message(),
			Timestamp:   w.Timestamp,
		}

		s.logger.Warn("ledger replay warning",
			zap.String("portfolioId", portfolioID),
			zap.String("code", string(w.Code)),
			zap.String("asset", w.AssetID),
			zap.String("detail", w.Message()))
	}

	return collected
}

// normalizeCurrency lowercases a reporting currency and falls back to usd
// when none is given.
func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd"
	}
	return currency
}
