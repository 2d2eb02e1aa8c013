package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
)

const (
	// marketsCacheTTL is how long a markets listing is served from cache
	// before the provider is asked again.
	marketsCacheTTL = 5 * time.Minute

	// defaultBackfillDays is the price history window fetched for an asset
	// that has neither stored prices nor transactions.
	defaultBackfillDays = 365

	// maxChartDays caps the market chart window per request.
	maxChartDays = 365
)

// MarketDataService proxies the market data provider and keeps the stored
// daily prices current. Market listings are cached for a short interval so
// dashboard polling does not burn through the provider rate limit.
type MarketDataService struct {
	market          coingecko.Client
	assetRepo       *repository.AssetRepository
	transactionRepo *repository.TransactionRepository
	logger          *zap.Logger

	mu    sync.RWMutex
	cache map[string]marketsEntry
}

type marketsEntry struct {
	coins     []coingecko.MarketCoin
	fetchedAt time.Time
}

// NewMarketDataService creates a new MarketDataService.
func NewMarketDataService(
	market coingecko.Client,
	assetRepo *repository.AssetRepository,
	transactionRepo *repository.TransactionRepository,
	logger *zap.Logger,
) *MarketDataService {
	return &MarketDataService{
		market:          market,
		assetRepo:       assetRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
		cache:           make(map[string]marketsEntry),
	}
}

// Markets returns the provider's market listing for the given query,
// served from cache when an identical query was answered within the
// cache interval.
func (s *MarketDataService) Markets(ctx context.Context, vsCurrency string, ids []string, perPage, page int) ([]coingecko.MarketCoin, error) {
	cleaned := sanitizeCoinIDs(ids)
	key := fmt.Sprintf("%s|%s|%d|%d", vsCurrency, strings.Join(cleaned, ","), perPage, page)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < marketsCacheTTL {
		return entry.coins, nil
	}

	coins, err := s.market.Markets(ctx, vsCurrency, cleaned, perPage, page)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = marketsEntry{coins: coins, fetchedAt: time.Now()}
	s.mu.Unlock()

	return coins, nil
}

// BatchMarketChart fetches historical series for multiple coins in one
// operation. A coin that fails does not fail the batch; its error lands in
// the Errors map keyed by coin id. Coins are fetched sequentially so the
// provider rate limit is respected.
func (s *MarketDataService) BatchMarketChart(ctx context.Context, req request.BatchMarketChartRequest) (model.BatchHistory, error) {
	result := model.BatchHistory{
		Data:   make(map[string]model.CoinHistory, len(req.CoinIDs)),
		Errors: make(map[string]string),
	}

	for _, coinID := range sanitizeCoinIDs(req.CoinIDs) {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		chart, err := s.market.MarketChart(ctx, coinID, req.VsCurrency, req.Days)
		if err != nil {
			result.Errors[coinID] = err.Error()
			continue
		}

		result.Data[coinID] = model.CoinHistory{
			Prices:       chart.Prices,
			MarketCaps:   chart.MarketCaps,
			TotalVolumes: chart.TotalVolumes,
		}
	}

	return result, nil
}

// RefreshDailyPrices brings the stored daily prices of every tracked asset
// up to date. Each asset is fetched and stored independently; failures are
// collected per asset so one bad coin id cannot block the rest. Success is
// true when at least one asset was refreshed.
func (s *MarketDataService) RefreshDailyPrices(ctx context.Context) (model.PriceRefreshResponse, error) {
	assets, err := s.assetRepo.GetAssets()
	if err != nil {
		return model.PriceRefreshResponse{}, err
	}

	resp := model.PriceRefreshResponse{
		UpdatedAssets: []model.UpdatedAsset{},
		Errors:        []model.UpdatedAssetError{},
	}

	for _, asset := range assets {
		if ctx.Err() != nil {
			return resp, ctx.Err()
		}

		added, err := s.refreshAsset(ctx, asset)
		if err != nil {
			s.logger.Warn("price refresh failed",
				zap.String("coingecko_id", asset.CoingeckoID),
				zap.Error(err),
			)
			resp.Errors = append(resp.Errors, model.UpdatedAssetError{
				AssetID:     asset.ID,
				CoingeckoID: asset.CoingeckoID,
				Symbol:      asset.Symbol,
				Error:       err.Error(),
			})
			continue
		}

		resp.UpdatedAssets = append(resp.UpdatedAssets, model.UpdatedAsset{
			AssetID:     asset.ID,
			CoingeckoID: asset.CoingeckoID,
			Symbol:      asset.Symbol,
			PricesAdded: added,
		})
	}

	resp.TotalUpdated = len(resp.UpdatedAssets)
	resp.TotalErrors = len(resp.Errors)
	resp.Success = resp.TotalUpdated > 0

	if resp.TotalUpdated > 0 || resp.TotalErrors > 0 {
		s.logger.Info("daily price refresh finished",
			zap.Int("updated", resp.TotalUpdated),
			zap.Int("errors", resp.TotalErrors),
		)
	}

	return resp, nil
}

// refreshAsset fetches the market chart for one asset and stores the daily
// closes that are new or refresh the most recent stored date. Returns how
// many new dates were added.
func (s *MarketDataService) refreshAsset(ctx context.Context, asset model.AssetResponse) (int, error) {
	var latest time.Time
	if asset.LatestPriceDate != "" {
		parsed, err := repository.ParseTime(asset.LatestPriceDate)
		if err != nil {
			return 0, fmt.Errorf("stored latest price date is malformed: %w", err)
		}
		latest = parsed
	}

	days := s.backfillDays(latest, asset.ID)

	chart, err := s.market.MarketChart(ctx, asset.CoingeckoID, asset.Currency, days)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, point := range dailyCloses(chart.Prices) {
		if !latest.IsZero() && point.date.Before(latest) {
			continue
		}
		if err := s.assetRepo.UpsertPrice(ctx, asset.ID, point.date, point.price, asset.Currency); err != nil {
			return added, err
		}
		if latest.IsZero() || point.date.After(latest) {
			added++
		}
	}

	return added, nil
}

// backfillDays sizes the market chart window for an asset: from the most
// recent stored price when there is one, otherwise from the asset's oldest
// transaction so stored prices cover the holding period, otherwise the
// default window.
func (s *MarketDataService) backfillDays(latest time.Time, assetID string) int {
	since := latest
	if since.IsZero() {
		since = s.transactionRepo.GetOldestTransactionOnAsset(assetID)
	}
	if since.IsZero() {
		return defaultBackfillDays
	}

	days := int(time.Since(since).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	if days > maxChartDays {
		days = maxChartDays
	}
	return days
}

type pricePoint struct {
	date  time.Time
	price float64
}

// dailyCloses collapses a [timestamp-ms, price] series to one point per UTC
// day, keeping the last value of each day, sorted oldest first.
func dailyCloses(series [][2]float64) []pricePoint {
	byDay := make(map[time.Time]pricePoint, len(series))
	for _, p := range series {
		ts := time.UnixMilli(int64(p[0])).UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = pricePoint{date: day, price: p[1]}
	}

	points := make([]pricePoint, 0, len(byDay))
	for _, point := range byDay {
		points = append(points, point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })

	return points
}

// sanitizeCoinIDs trims, lowercases, dedupes and sorts coin ids so that
// equivalent market queries share one cache entry.
func sanitizeCoinIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		cleaned = append(cleaned, id)
	}
	sort.Strings(cleaned)
	return cleaned
}
