package service

import (
	"context"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
)

// PortfolioService handles portfolio-related business logic operations.
// It coordinates portfolio lifecycle, asset links, and the valuation summary
// that combines FIFO remaining lots with latest stored prices.
type PortfolioService struct {
	portfolioRepo      *repository.PortfolioRepository
	portfolioAssetRepo *repository.PortfolioAssetRepository
	assetRepo          *repository.AssetRepository
	pnlService         *PnLService
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	portfolioAssetRepo *repository.PortfolioAssetRepository,
	assetRepo *repository.AssetRepository,
	pnlService *PnLService,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo:      portfolioRepo,
		portfolioAssetRepo: portfolioAssetRepo,
		assetRepo:          assetRepo,
		pnlService:         pnlService,
	}
}

// GetPortfolios retrieves portfolios. Archived portfolios are included only
// when requested; overview-excluded portfolios are always listed here since
// this is the management listing, not the overview.
func (s *PortfolioService) GetPortfolios(includeArchived bool) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(model.PortfolioFilter{
		IncludeArchived: includeArchived,
		IncludeExcluded: true,
	})
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// CreatePortfolio creates a new portfolio.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, req request.CreatePortfolioRequest) (model.Portfolio, error) {
	return s.portfolioRepo.CreatePortfolio(ctx, model.Portfolio{
		Name:                req.Name,
		Description:         req.Description,
		ExcludeFromOverview: req.ExcludeFromOverview,
	})
}

// UpdatePortfolio applies the provided fields to an existing portfolio and
// returns the updated record.
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, portfolioID string, req request.UpdatePortfolioRequest) (model.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.Portfolio{}, err
	}

	if req.Name != nil {
		portfolio.Name = *req.Name
	}
	if req.Description != nil {
		portfolio.Description = *req.Description
	}
	if req.ExcludeFromOverview != nil {
		portfolio.ExcludeFromOverview = *req.ExcludeFromOverview
	}

	if err := s.portfolioRepo.UpdatePortfolio(ctx, portfolio); err != nil {
		return model.Portfolio{}, err
	}

	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// ToggleArchive flips the archive flag on a portfolio and returns the
// updated record.
func (s *PortfolioService) ToggleArchive(ctx context.Context, portfolioID string) (model.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.Portfolio{}, err
	}

	if err := s.portfolioRepo.SetArchived(ctx, portfolioID, !portfolio.IsArchived); err != nil {
		return model.Portfolio{}, err
	}

	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// DeletePortfolio removes a portfolio together with its asset links and
// transactions.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, portfolioID string) error {
	return s.portfolioRepo.DeletePortfolio(ctx, portfolioID)
}

// GetPortfolioAssets lists the assets linked to a portfolio.
func (s *PortfolioService) GetPortfolioAssets(portfolioID string) ([]model.PortfolioAssetResponse, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(portfolioID); err != nil {
		return nil, err
	}

	return s.portfolioAssetRepo.GetPortfolioAssets(portfolioID)
}

// LinkAsset adds an asset to a portfolio so transactions can be recorded
// against it. Both sides of the link must exist.
func (s *PortfolioService) LinkAsset(ctx context.Context, req request.CreatePortfolioAssetRequest) (model.PortfolioAsset, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(req.PortfolioID); err != nil {
		return model.PortfolioAsset{}, err
	}
	if _, err := s.assetRepo.GetAssetOnID(req.AssetID); err != nil {
		return model.PortfolioAsset{}, err
	}

	return s.portfolioAssetRepo.InsertPortfolioAsset(ctx, req.PortfolioID, req.AssetID)
}

// UnlinkAsset removes an asset link from a portfolio. Links with recorded
// transactions are protected with ErrAssetInUse; deleting them would drop
// ledger history silently.
func (s *PortfolioService) UnlinkAsset(ctx context.Context, portfolioID, assetID string) error {
	link, err := s.portfolioAssetRepo.GetByPortfolioAndAsset(portfolioID, assetID)
	if err != nil {
		return err
	}

	hasTransactions, err := s.portfolioAssetRepo.HasTransactions(link.ID)
	if err != nil {
		return err
	}
	if hasTransactions {
		return apperrors.ErrAssetInUse
	}

	return s.portfolioAssetRepo.DeletePortfolioAsset(ctx, link.ID)
}

// Summary values a portfolio as of now: held quantity and cost basis come
// from the FIFO remaining lots, current value from the latest stored price,
// realized figures from the full ledger replay. Assets linked to the
// portfolio but never traded appear as zero positions.
func (s *PortfolioService) Summary(ctx context.Context, portfolioID, vsCurrency string) (model.PortfolioSummary, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	vsCurrency = normalizeCurrency(vsCurrency)

	links, err := s.portfolioAssetRepo.GetPortfolioAssets(portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	pnl, err := s.pnlService.RealizedForPortfolio(ctx, portfolioID, vsCurrency)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	pnlByAsset := make(map[string]model.AssetRealizedPnL, len(pnl.Assets))
	for _, assetPnL := range pnl.Assets {
		pnlByAsset[assetPnL.AssetID] = assetPnL
	}

	assetIDs := make([]string, len(links))
	for i, link := range links {
		assetIDs[i] = link.AssetID
	}

	latestPrices, err := s.assetRepo.GetLatestPricesOnAssetIDs(assetIDs)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	summary := model.PortfolioSummary{
		ID:         portfolio.ID,
		Name:       portfolio.Name,
		Currency:   vsCurrency,
		IsArchived: portfolio.IsArchived,
		Positions:  make([]model.AssetPosition, len(links)),
	}

	for i, link := range links {
		position := model.AssetPosition{
			AssetID:     link.AssetID,
			CoingeckoID: link.CoingeckoID,
			Symbol:      link.Symbol,
			Name:        link.Name,
		}

		if assetPnL, ok := pnlByAsset[link.AssetID]; ok {
			for _, lot := range assetPnL.RemainingLots {
				position.Quantity += lot.Quantity
			}
			position.CostBasis = assetPnL.RemainingCostBasis
			position.RealizedPnL = assetPnL.RealizedPnL

			if position.Quantity > 0 {
				position.AverageCost = round(position.CostBasis / position.Quantity)
			}
		}

		if price, ok := latestPrices[link.AssetID]; ok {
			position.CurrentPrice = price.Price
			position.CurrentValue = round(position.Quantity * price.Price)
		}
		position.UnrealizedPnL = round(position.CurrentValue - position.CostBasis)

		summary.TotalValue += position.CurrentValue
		summary.TotalCostBasis += position.CostBasis
		summary.TotalUnrealizedPnL += position.UnrealizedPnL
		summary.TotalRealizedPnL += position.RealizedPnL

		summary.Positions[i] = position
	}

	for i := range summary.Positions {
		if summary.TotalValue > 0 {
			summary.Positions[i].Weight = round(summary.Positions[i].CurrentValue / summary.TotalValue * 100)
		}
	}

	summary.TotalValue = round(summary.TotalValue)
	summary.TotalCostBasis = round(summary.TotalCostBasis)
	summary.TotalUnrealizedPnL = round(summary.TotalUnrealizedPnL)
	summary.TotalRealizedPnL = round(summary.TotalRealizedPnL)
	summary.TotalPnL = round(summary.TotalUnrealizedPnL + summary.TotalRealizedPnL)
	summary.FormattedValue = formatMoney(summary.TotalValue, vsCurrency)

	return summary, nil
}
