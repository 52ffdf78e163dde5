package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/gin-gonic/gin"
)

// batchHandler handles HTTP requests related to calculation batches.
type batchHandler struct {
	batchService portssvc.BatchSvcFacade
}

func newBatchHandler(bs portssvc.BatchSvcFacade) *batchHandler {
	return &batchHandler{
		batchService: bs,
	}
}

// registerBatchRoutes registers routes related to calculation batches.
func registerBatchRoutes(rg *gin.RouterGroup, batchService portssvc.BatchSvcFacade) {
	h := newBatchHandler(batchService)

	batches := rg.Group("/batches")
	{
		batches.POST("", h.createBatch)
		batches.GET("", h.listBatches)
		batches.GET("/:batchID", h.getBatchByID)
		batches.POST("/:batchID/approve", h.approveBatchResults)
	}
}

// createBatch godoc
// @Summary Submit a calculation batch
// @Description Submits a batch for asynchronous evaluation. Submissions are idempotent on the identity key (formula, contract, date, version preference, revision): a resubmission returns the existing batch with isDuplicate=true and HTTP 200 instead of 202.
// @Tags batches
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param batch body dto.CreateBatchRequest true "Batch parameters"
// @Success 200 {object} dto.CreateBatchResponse "Existing batch matched"
// @Success 202 {object} dto.CreateBatchResponse "Queued for execution"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Formula or contract not found"
// @Failure 500 {object} map[string]string "Failed to submit batch"
// @Router /tenants/{tenantID}/batches [post]
func (h *batchHandler) createBatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateBatch", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	batch, isDuplicate, err := h.batchService.CreateBatch(c.Request.Context(), tenantID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create batch", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit batch"})
		}
		return
	}

	resp := dto.CreateBatchResponse{
		BatchID:     batch.BatchID,
		IsDuplicate: isDuplicate,
		Status:      string(batch.Status),
	}
	if isDuplicate {
		c.JSON(http.StatusOK, resp)
		return
	}

	if err := h.batchService.SubmitExecution(c.Request.Context(), batch.BatchID); err != nil {
		// The batch stays QUEUED; a later submission or operator action can
		// still run it.
		logger.Error("Failed to schedule batch execution", slog.String("batch_id", batch.BatchID), slog.String("error", err.Error()))
	}

	logger.Info("Batch queued", slog.String("batch_id", batch.BatchID))
	c.JSON(http.StatusAccepted, resp)
}

// getBatchByID godoc
// @Summary Get a batch with its results
// @Description Retrieves batch status. Results are included once the batch is COMPLETED.
// @Tags batches
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param batchID path string true "Batch ID"
// @Success 200 {object} dto.BatchResponse
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 500 {object} map[string]string "Failed to retrieve batch"
// @Router /tenants/{tenantID}/batches/{batchID} [get]
func (h *batchHandler) getBatchByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	batchID := c.Param("batchID")

	batch, results, err := h.batchService.GetBatchByID(c.Request.Context(), tenantID, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		} else {
			logger.Error("Failed to get batch", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve batch"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToBatchResponse(batch, results))
}

// listBatches godoc
// @Summary List batches
// @Description Lists the tenant's batches newest-first with token pagination.
// @Tags batches
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListBatchesResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 500 {object} map[string]string "Failed to list batches"
// @Router /tenants/{tenantID}/batches [get]
func (h *batchHandler) listBatches(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var params dto.ListBatchesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.batchService.ListBatches(c.Request.Context(), tenantID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list batches", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list batches"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// approveBatchResults godoc
// @Summary Approve a completed batch's results
// @Description Marks every result of a COMPLETED batch approved. Approval is the precondition for revision proposals and the only mutation results ever receive.
// @Tags batches
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param batchID path string true "Batch ID"
// @Success 204 "Results approved"
// @Failure 404 {object} map[string]string "Batch not found"
// @Failure 409 {object} map[string]string "Batch is not COMPLETED"
// @Failure 500 {object} map[string]string "Failed to approve results"
// @Router /tenants/{tenantID}/batches/{batchID}/approve [post]
func (h *batchHandler) approveBatchResults(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	batchID := c.Param("batchID")

	approverUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.batchService.ApproveBatchResults(c.Request.Context(), tenantID, batchID, approverUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Only COMPLETED batches can be approved"})
		default:
			logger.Error("Failed to approve batch results", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve results"})
		}
		return
	}

	logger.Info("Batch results approved", slog.String("batch_id", batchID))
	c.Status(http.StatusNoContent)
}
