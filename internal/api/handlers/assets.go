package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/response"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// AssetHandler handles HTTP requests for the tracked asset catalogue.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the asset and P&L services.
type AssetHandler struct {
	assetService *service.AssetService
	pnlService   *service.PnLService
}

// NewAssetHandler creates a new AssetHandler with the provided service dependencies.
func NewAssetHandler(assetService *service.AssetService, pnlService *service.PnLService) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
		pnlService:   pnlService,
	}
}

// Assets handles GET requests to list all tracked assets with their latest
// stored price attached.
//
// Endpoint: GET /api/assets
// Response: 200 OK with array of AssetResponse
// Error: 500 Internal Server Error if retrieval fails
func (h *AssetHandler) Assets(w http.ResponseWriter, _ *http.Request) {
	assets, err := h.assetService.GetAssets()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAssets.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, assets)
}

// GetAsset handles GET requests to retrieve a single asset by ID.
//
// Endpoint: GET /api/assets/{uuid}
// Response: 200 OK with Asset
// Error: 400 Bad Request if asset ID is invalid (validated by middleware)
// Error: 404 Not Found if asset not found
// Error: 500 Internal Server Error if retrieval fails
func (h *AssetHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")

	asset, err := h.assetService.GetAsset(assetID)
	if err != nil {
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAssets.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, asset)
}

// CreateAsset handles POST requests to add a coin to the tracked catalogue.
//
// Endpoint: POST /api/assets
// Request Body: CreateAssetRequest (coingeckoId, symbol, name, currency)
// Response: 201 Created with Asset
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 409 Conflict if an asset with the same coingecko id exists
// Error: 500 Internal Server Error if creation fails
func (h *AssetHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateAssetRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateAsset(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	asset, err := h.assetService.CreateAsset(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEntry) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create asset", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, asset)
}

// UpdateAsset handles PUT requests to update an asset's display fields.
// The coingecko id is immutable once created.
//
// Endpoint: PUT /api/assets/{uuid}
// Request Body: UpdateAssetRequest (all fields optional)
// Response: 200 OK with updated Asset
// Error: 400 Bad Request if asset ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if asset not found
// Error: 500 Internal Server Error if update fails
func (h *AssetHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateAssetRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateAsset(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	asset, err := h.assetService.UpdateAsset(r.Context(), assetID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrAssetNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to update asset", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, asset)
}

// DeleteAsset handles DELETE requests to remove an asset and its price
// history. Assets linked to any portfolio cannot be removed.
//
// Endpoint: DELETE /api/assets/{uuid}
// Response: 204 No Content on successful deletion
// Error: 400 Bad Request if asset ID is invalid (validated by middleware)
// Error: 404 Not Found if asset not found
// Error: 409 Conflict if the asset is linked to a portfolio
// Error: 500 Internal Server Error if deletion fails
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")

	err := h.assetService.DeleteAsset(r.Context(), assetID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrAssetInUse):
			response.RespondError(w, http.StatusConflict, apperrors.ErrAssetInUse.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to delete asset", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// AssetRealizedPnL handles GET requests for one asset's realized profit and
// loss within a portfolio, computed through the FIFO lot queue.
//
// Endpoint: GET /api/assets/{uuid}/pnl?portfolioId=&currency=
// Response: 200 OK with AssetRealizedPnLDetail
// Error: 400 Bad Request if asset ID is invalid (validated by middleware) or portfolioId is missing/invalid
// Error: 404 Not Found if portfolio or asset not found
// Error: 500 Internal Server Error if the calculation fails
func (h *AssetHandler) AssetRealizedPnL(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")
	portfolioID := r.URL.Query().Get("portfolioId")
	currency := stringQueryParam(r, "currency", "usd")

	if err := validation.ValidateUUID(portfolioID); err != nil {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidPortfolioID.Error(), err.Error())
		return
	}

	result, err := h.pnlService.RealizedForAsset(r.Context(), portfolioID, assetID, currency)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPortfolioNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrUnsupportedCurrency):
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrUnsupportedCurrency.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToComputeRealizedPnL.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// AssetPrices handles GET requests for an asset's stored daily prices.
// Missing bounds default to the beginning of time and today respectively.
//
// Endpoint: GET /api/assets/{uuid}/prices?startDate=&endDate=
// Response: 200 OK with array of AssetPrice
// Error: 400 Bad Request if asset ID is invalid (validated by middleware) or dates are malformed
// Error: 404 Not Found if asset not found
// Error: 500 Internal Server Error if retrieval fails
func (h *AssetHandler) AssetPrices(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "uuid")
	startDate := stringQueryParam(r, "startDate", "1970-01-01")
	endDate := stringQueryParam(r, "endDate", time.Now().UTC().Format("2006-01-02"))

	prices, err := h.assetService.GetPrices(assetID, startDate, endDate)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrInvalidDate), errors.Is(err, apperrors.ErrInvalidDateRange):
			response.RespondError(w, http.StatusBadRequest, err.Error(), "")
		default:
			response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAssetPrices.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, prices)
}
