package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/response"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/coingecko"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// MarketDataHandler handles HTTP requests for market data endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the marketDataService.
type MarketDataHandler struct {
	marketDataService *service.MarketDataService
}

// NewMarketDataHandler creates a new MarketDataHandler with the provided service dependency.
func NewMarketDataHandler(marketDataService *service.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{
		marketDataService: marketDataService,
	}
}

// Markets handles GET requests for the provider's market listing. Responses
// are cached server-side for a short interval per distinct query.
//
// Endpoint: GET /api/market-data/markets?vs_currency=&ids=&per_page=&page=
// Response: 200 OK with array of MarketCoin
// Error: 400 Bad Request if query parameters are invalid
// Error: 408 Request Timeout if the provider does not answer in time
// Error: 503 Service Unavailable if the provider is unreachable
// Other provider status codes (401, 429, 5xx) pass through unchanged.
func (h *MarketDataHandler) Markets(w http.ResponseWriter, r *http.Request) {
	vsCurrency := strings.ToLower(stringQueryParam(r, "vs_currency", "usd"))

	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}

	perPage, err := intQueryParam(r, "per_page", 100)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	page, err := intQueryParam(r, "page", 1)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if err := validation.ValidateMarketQuery(vsCurrency, perPage, page); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	coins, err := h.marketDataService.Markets(r.Context(), vsCurrency, ids, perPage, page)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, coins)
}

// History handles POST requests for historical market charts of multiple
// coins. Coins that fail are reported in the response's errors map without
// failing the batch.
//
// Endpoint: POST /api/market-data/history
// Request Body: BatchMarketChartRequest (coin_ids, vs_currency, days)
// Response: 200 OK with BatchHistory
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if the batch cannot run at all
func (h *MarketDataHandler) History(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BatchMarketChartRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.VsCurrency = strings.ToLower(req.VsCurrency)

	if err := validation.ValidateBatchMarketChart(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	history, err := h.marketDataService.BatchMarketChart(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToFetchMarketData.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// Refresh handles POST requests to bring the stored daily prices of all
// tracked assets up to date immediately, outside the scheduled refresh.
//
// Endpoint: POST /api/market-data/refresh
// Response: 200 OK with PriceRefreshResponse (per-asset results and errors)
// Error: 500 Internal Server Error if the asset catalogue cannot be read
func (h *MarketDataHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.marketDataService.RefreshDailyPrices(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRefreshPrices.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// respondUpstreamError translates market data provider failures into client
// responses: provider status codes pass through with the provider's error
// text, timeouts map to 408 and network failures to 503.
func respondUpstreamError(w http.ResponseWriter, err error) {
	var statusErr *coingecko.StatusError
	switch {
	case errors.As(err, &statusErr):
		response.RespondError(w, statusErr.StatusCode, apperrors.ErrFailedToFetchMarketData.Error(), statusErr.Body)
	case coingecko.IsTimeout(err):
		response.RespondError(w, http.StatusRequestTimeout, apperrors.ErrFailedToFetchMarketData.Error(), "request to market data provider timed out")
	case coingecko.IsNetwork(err):
		response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrFailedToFetchMarketData.Error(), "market data provider unreachable")
	default:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToFetchMarketData.Error(), err.Error())
	}
}
