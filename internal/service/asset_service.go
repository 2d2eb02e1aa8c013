package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/registry"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
)

// AssetService manages the tracked asset catalogue and its stored daily
// prices.
type AssetService struct {
	assetRepo *repository.AssetRepository
	logger    *zap.Logger
}

// NewAssetService creates a new AssetService.
func NewAssetService(assetRepo *repository.AssetRepository, logger *zap.Logger) *AssetService {
	return &AssetService{
		assetRepo: assetRepo,
		logger:    logger,
	}
}

// GetAssets lists all tracked assets with their latest stored price.
func (s *AssetService) GetAssets() ([]model.AssetResponse, error) {
	return s.assetRepo.GetAssets()
}

// GetAsset retrieves a single asset by ID.
func (s *AssetService) GetAsset(assetID string) (model.Asset, error) {
	return s.assetRepo.GetAssetOnID(assetID)
}

// CreateAsset adds a coin to the tracked catalogue. The coingecko id is
// stored lowercase, the symbol uppercase; duplicate coingecko ids are
// rejected with ErrDuplicateEntry.
func (s *AssetService) CreateAsset(ctx context.Context, req request.CreateAssetRequest) (model.Asset, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.ToUpper(strings.TrimSpace(req.Symbol))
	}

	return s.assetRepo.CreateAsset(ctx, model.Asset{
		CoingeckoID: strings.ToLower(strings.TrimSpace(req.CoingeckoID)),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:        name,
		Currency:    strings.ToLower(strings.TrimSpace(req.Currency)),
	})
}

// UpdateAsset applies the provided display fields to an existing asset and
// returns the updated record. The coingecko id is immutable.
func (s *AssetService) UpdateAsset(ctx context.Context, assetID string, req request.UpdateAssetRequest) (model.Asset, error) {
	asset, err := s.assetRepo.GetAssetOnID(assetID)
	if err != nil {
		return model.Asset{}, err
	}

	if req.Symbol != nil {
		asset.Symbol = strings.ToUpper(strings.TrimSpace(*req.Symbol))
	}
	if req.Name != nil {
		asset.Name = strings.TrimSpace(*req.Name)
	}
	if req.Currency != nil {
		asset.Currency = strings.ToLower(strings.TrimSpace(*req.Currency))
	}

	if err := s.assetRepo.UpdateAsset(ctx, asset); err != nil {
		return model.Asset{}, err
	}

	return s.assetRepo.GetAssetOnID(assetID)
}

// DeleteAsset removes an asset and its price history. Assets linked to any
// portfolio are protected with ErrAssetInUse.
func (s *AssetService) DeleteAsset(ctx context.Context, assetID string) error {
	links, err := s.assetRepo.CountPortfolioLinks(assetID)
	if err != nil {
		return err
	}
	if links > 0 {
		return apperrors.ErrAssetInUse
	}

	return s.assetRepo.DeleteAsset(ctx, assetID)
}

// GetPrices returns the stored daily prices for an asset between startDate
// and endDate inclusive, oldest first.
func (s *AssetService) GetPrices(assetID, startDate, endDate string) ([]model.AssetPrice, error) {
	if _, err := s.assetRepo.GetAssetOnID(assetID); err != nil {
		return nil, err
	}

	start, err := repository.ParseTime(startDate)
	if err != nil {
		return nil, apperrors.ErrInvalidDate
	}
	end, err := repository.ParseTime(endDate)
	if err != nil {
		return nil, apperrors.ErrInvalidDate
	}
	if end.Before(start) {
		return nil, apperrors.ErrInvalidDateRange
	}

	return s.assetRepo.GetPrices(assetID, start, end)
}

// Seed inserts catalogue entries into the asset table when missing. Existing
// rows are never modified, so user edits to symbol or name survive restarts.
func (s *AssetService) Seed(ctx context.Context, entries []registry.SeedAsset) error {
	inserted := 0
	for _, entry := range entries {
		created, err := s.assetRepo.InsertIfMissing(ctx, model.Asset{
			CoingeckoID: entry.CoingeckoID,
			Symbol:      entry.Symbol,
			Name:        entry.Name,
			Currency:    entry.Currency,
		})
		if err != nil {
			return err
		}
		if created {
			inserted++
		}
	}

	if inserted > 0 {
		s.logger.Info("seeded asset catalogue",
			zap.Int("inserted", inserted),
			zap.Int("total", len(entries)),
		)
	}

	return nil
}
