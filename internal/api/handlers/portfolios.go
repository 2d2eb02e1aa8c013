package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/response"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the portfolio and P&L services.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	pnlService       *service.PnLService
}

// NewPortfolioHandler creates a new PortfolioHandler with the provided service dependencies.
func NewPortfolioHandler(portfolioService *service.PortfolioService, pnlService *service.PnLService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		pnlService:       pnlService,
	}
}

// Portfolios handles GET requests to list portfolios. Archived portfolios
// are excluded unless includeArchived=true is passed.
//
// Endpoint: GET /api/portfolios?includeArchived=
// Response: 200 OK with array of Portfolio
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	includeArchived := stringQueryParam(r, "includeArchived", "false") == "true"

	portfolios, err := h.portfolioService.GetPortfolios(includeArchived)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePortfolios.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// GetPortfolio handles GET requests to retrieve a single portfolio by ID.
//
// Endpoint: GET /api/portfolios/{uuid}
// Response: 200 OK with Portfolio
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	portfolio, err := h.portfolioService.GetPortfolio(portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePortfolios.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// CreatePortfolio handles POST requests to create a new portfolio.
//
// Endpoint: POST /api/portfolios
// Request Body: CreatePortfolioRequest (name, description, excludeFromOverview)
// Response: 201 Created with Portfolio
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreatePortfolioRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, portfolio)
}

// UpdatePortfolio handles PUT requests to update an existing portfolio.
//
// Endpoint: PUT /api/portfolios/{uuid}
// Request Body: UpdatePortfolioRequest (all fields optional)
// Response: 200 OK with updated Portfolio
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if update fails
func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdatePortfolioRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePortfolio(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(r.Context(), portfolioID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to update portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// DeletePortfolio handles DELETE requests to remove a portfolio together
// with its asset links and transactions.
//
// Endpoint: DELETE /api/portfolios/{uuid}
// Response: 204 No Content on successful deletion
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if deletion fails
func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	err := h.portfolioService.DeletePortfolio(r.Context(), portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to delete portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ToggleArchive handles POST requests to flip the archive flag on a portfolio.
//
// Endpoint: POST /api/portfolios/{uuid}/archive
// Response: 200 OK with updated Portfolio
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if the update fails
func (h *PortfolioHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	portfolio, err := h.portfolioService.ToggleArchive(r.Context(), portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to archive portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// Summary handles GET requests for a portfolio's current valuation:
// held quantities, cost basis, market value and allocation per asset.
//
// Endpoint: GET /api/portfolios/{uuid}/summary?currency=
// Response: 200 OK with PortfolioSummary
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if the summary cannot be computed
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")
	currency := stringQueryParam(r, "currency", "usd")

	summary, err := h.portfolioService.Summary(r.Context(), portfolioID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrUnsupportedCurrency) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrUnsupportedCurrency.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolioSummary.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// RealizedPnL handles GET requests for a portfolio's realized profit and
// loss, computed by replaying each asset's transaction history through the
// FIFO lot queue.
//
// Endpoint: GET /api/portfolios/{uuid}/pnl?currency=
// Response: 200 OK with PortfolioRealizedPnL
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if the calculation fails
func (h *PortfolioHandler) RealizedPnL(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")
	currency := stringQueryParam(r, "currency", "usd")

	result, err := h.pnlService.RealizedForPortfolio(r.Context(), portfolioID, currency)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrUnsupportedCurrency) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrUnsupportedCurrency.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToComputeRealizedPnL.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// PortfolioAssets handles GET requests to list the assets linked to a portfolio.
//
// Endpoint: GET /api/portfolios/{uuid}/assets
// Response: 200 OK with array of PortfolioAssetResponse
// Error: 400 Bad Request if portfolio ID is invalid (validated by middleware)
// Error: 404 Not Found if portfolio not found
// Error: 500 Internal Server Error if retrieval fails
func (h *PortfolioHandler) PortfolioAssets(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	assets, err := h.portfolioService.GetPortfolioAssets(portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrPortfolioNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetPortfolioAssets.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, assets)
}

// LinkAsset handles POST requests to link an asset to a portfolio so
// transactions can be recorded against it. The portfolio ID comes from the
// URL path; a portfolioId in the body is ignored.
//
// Endpoint: POST /api/portfolios/{uuid}/assets
// Request Body: CreatePortfolioAssetRequest (assetId)
// Response: 201 Created with PortfolioAsset
// Error: 400 Bad Request if IDs are invalid or request body is invalid
// Error: 404 Not Found if portfolio or asset not found
// Error: 409 Conflict if the asset is already linked
// Error: 500 Internal Server Error if the link cannot be created
func (h *PortfolioHandler) LinkAsset(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreatePortfolioAssetRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.PortfolioID = chi.URLParam(r, "uuid")

	if err := validation.ValidateCreatePortfolioAsset(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	link, err := h.portfolioService.LinkAsset(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPortfolioNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrDuplicateEntry):
			response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to link asset", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusCreated, link)
}

// UnlinkAsset handles DELETE requests to remove an asset link from a
// portfolio. Links with recorded transactions cannot be removed.
//
// Endpoint: DELETE /api/portfolios/{uuid}/assets/{assetUuid}
// Response: 204 No Content on successful removal
// Error: 400 Bad Request if either ID is invalid
// Error: 404 Not Found if the link does not exist
// Error: 409 Conflict if transactions reference the link
// Error: 500 Internal Server Error if the removal fails
func (h *PortfolioHandler) UnlinkAsset(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")
	assetID := chi.URLParam(r, "assetUuid")

	if err := validation.ValidateUUID(assetID); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid UUID format", err.Error())
		return
	}

	err := h.portfolioService.UnlinkAsset(r.Context(), portfolioID, assetID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPortfolioAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrAssetInUse):
			response.RespondError(w, http.StatusConflict, apperrors.ErrAssetInUse.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to unlink asset", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
