package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/response"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService   *service.SystemService
	settingsService *service.SettingsService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService, settingsService *service.SettingsService) *SystemHandler {
	return &SystemHandler{
		systemService:   systemService,
		settingsService: settingsService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// Version handles GET requests to retrieve version information and feature availability.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionInfo
// Error: 500 Internal Server Error if version check fails
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	info, err := h.systemService.CheckVersion()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, info)
}

// GetCoingeckoKey handles GET requests for the stored CoinGecko API key.
// The value is returned with all but the last characters masked.
//
// Endpoint: GET /api/system/settings/coingecko-key
// Response: 200 OK with SettingResponse
// Error: 404 Not Found if no key has been stored
// Error: 500 Internal Server Error if retrieval or decryption fails
func (h *SystemHandler) GetCoingeckoKey(w http.ResponseWriter, _ *http.Request) {
	setting, err := h.settingsService.GetCoingeckoAPIKey()
	if err != nil {
		if errors.Is(err, apperrors.ErrSettingNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSettingNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSetting.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, setting)
}

// SetCoingeckoKey handles POST requests to store the CoinGecko API key.
// The key is encrypted at rest and pushed into the market data client so it
// takes effect without a restart.
//
// Endpoint: POST /api/system/settings/coingecko-key
// Request Body: UpdateSettingRequest (value)
// Response: 200 OK with masked SettingResponse
// Error: 400 Bad Request if the body is invalid or the value is empty
// Error: 503 Service Unavailable if no encryption key is configured
// Error: 500 Internal Server Error if the key cannot be stored
func (h *SystemHandler) SetCoingeckoKey(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.UpdateSettingRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Value) == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "value is required")
		return
	}

	setting, err := h.settingsService.SetCoingeckoAPIKey(r.Context(), req.Value)
	if err != nil {
		if errors.Is(err, apperrors.ErrEncryptionUnavailable) {
			response.RespondError(w, http.StatusServiceUnavailable, apperrors.ErrEncryptionUnavailable.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToStoreSetting.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, setting)
}
