package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/request"
	"github.com/jblomberg5r/CryptoValhalla/internal/api/response"
	"github.com/jblomberg5r/CryptoValhalla/internal/apperrors"
	"github.com/jblomberg5r/CryptoValhalla/internal/model"
	"github.com/jblomberg5r/CryptoValhalla/internal/repository"
	"github.com/jblomberg5r/CryptoValhalla/internal/service"
	"github.com/jblomberg5r/CryptoValhalla/internal/validation"
)

// maxImportSize caps the in-memory portion of a CSV import upload.
const maxImportSize = 10 << 20 // 10 MiB

// TransactionHandler handles HTTP requests for transaction endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the transactionService.
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler with the provided service dependency.
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions handles GET requests to list transactions. All filters are
// optional; without any the full ledger is returned ascending by execution
// time.
//
// Endpoint: GET /api/transactions?portfolioAssetId=&portfolioId=&startDate=&endDate=
// Response: 200 OK with array of TransactionResponse
// Error: 400 Bad Request if a filter value is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	var filter model.TransactionFilter

	if portfolioAssetID := r.URL.Query().Get("portfolioAssetId"); portfolioAssetID != "" {
		if err := validation.ValidateUUID(portfolioAssetID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolioAssetId", err.Error())
			return
		}
		filter.PortfolioAssetID = portfolioAssetID
	}

	if portfolioID := r.URL.Query().Get("portfolioId"); portfolioID != "" {
		if err := validation.ValidateUUID(portfolioID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolioId", err.Error())
			return
		}
		filter.PortfolioID = portfolioID
	}

	if startDate := r.URL.Query().Get("startDate"); startDate != "" {
		parsed, err := repository.ParseTime(startDate)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid startDate", err.Error())
			return
		}
		filter.StartDate = parsed
	}

	if endDate := r.URL.Query().Get("endDate"); endDate != "" {
		parsed, err := repository.ParseTime(endDate)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid endDate", err.Error())
			return
		}
		filter.EndDate = parsed
	}

	transactions, err := h.transactionService.GetTransactionsOnFilter(filter)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests to retrieve a single transaction by ID.
//
// Endpoint: GET /api/transactions/{uuid}
// Response: 200 OK with TransactionResponse
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.transactionService.GetTransaction(transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransaction.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to record a buy or sell against a
// portfolio position. Sells that exceed the recorded holdings are rejected.
//
// Endpoint: POST /api/transactions
// Request Body: CreateTransactionRequest (portfolioAssetId, kind, quantity, unitPrice, currency, executedAt, note)
// Response: 201 Created with Transaction
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the portfolio-asset link does not exist
// Error: 409 Conflict if a sell exceeds the recorded holdings
// Error: 500 Internal Server Error if creation fails
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPortfolioAssetNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPortfolioAssetNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrInsufficientHoldings):
			response.RespondError(w, http.StatusConflict, apperrors.ErrInsufficientHoldings.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to create transaction", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to update an existing transaction.
//
// Endpoint: PUT /api/transactions/{uuid}
// Request Body: UpdateTransactionRequest (all fields optional)
// Response: 200 OK with updated TransactionResponse
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if update fails
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), transactionID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to update transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a transaction.
//
// Endpoint: DELETE /api/transactions/{uuid}
// Response: 204 No Content on successful deletion
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if deletion fails
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	err := h.transactionService.DeleteTransaction(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTransactionNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to delete transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// ImportTransactions handles POST requests to bulk-import transactions from
// an exchange CSV export. The upload is a multipart form with a portfolioId
// field and a file field holding the CSV. Malformed rows are skipped and
// reported; accepted rows are inserted atomically.
//
// Endpoint: POST /api/transactions/import
// Response: 200 OK with ImportResult (imported, skipped, per-line errors)
// Error: 400 Bad Request if the form, portfolioId or CSV header is invalid
// Error: 500 Internal Server Error if the import fails
func (h *TransactionHandler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	portfolioID := r.FormValue("portfolioId")
	if err := validation.ValidateUUID(portfolioID); err != nil {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidPortfolioID.Error(), err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "file upload is required", err.Error())
		return
	}
	defer file.Close()

	result, err := h.transactionService.ImportCSV(r.Context(), portfolioID, file)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCSVHeaders) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidCSVHeaders.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToImportTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
