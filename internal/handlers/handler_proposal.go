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

// proposalHandler handles HTTP requests related to revision proposals.
type proposalHandler struct {
	proposalService portssvc.ProposalSvcFacade
}

func newProposalHandler(ps portssvc.ProposalSvcFacade) *proposalHandler {
	return &proposalHandler{
		proposalService: ps,
	}
}

// registerProposalRoutes registers routes related to revision proposals.
func registerProposalRoutes(rg *gin.RouterGroup, proposalService portssvc.ProposalSvcFacade) {
	h := newProposalHandler(proposalService)

	proposals := rg.Group("/proposals")
	{
		proposals.POST("", h.createProposal)
		proposals.GET("", h.listProposals)
		proposals.GET("/:proposalID", h.getProposalByID)
		proposals.POST("/:proposalID/submit", h.submitForReview)
		proposals.POST("/:proposalID/review", h.reviewProposal)
	}
}

// createProposal godoc
// @Summary Draft a revision proposal
// @Description Re-runs the original batch's parameters against current data at the next revision number and drafts a signed credit/debit proposal from the non-zero price deltas. Requires the original batch to be COMPLETED with approved results.
// @Tags proposals
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param proposal body dto.CreateProposalRequest true "Proposal request"
// @Success 201 {object} dto.ProposalResponse
// @Failure 400 {object} map[string]string "Invalid input or no approved results"
// @Failure 404 {object} map[string]string "Original batch not found"
// @Failure 409 {object} map[string]string "Original batch not COMPLETED or an open proposal already exists"
// @Failure 422 {object} map[string]string "Recomputation produced no changes"
// @Failure 500 {object} map[string]string "Failed to create proposal"
// @Router /tenants/{tenantID}/proposals [post]
func (h *proposalHandler) createProposal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateProposal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.proposalService.CreateProposal(c.Request.Context(), tenantID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Original batch not found"})
		case errors.Is(err, apperrors.ErrNoChanges):
			logger.Info("Recomputation produced no changes", slog.String("original_batch_id", req.OriginalBatchID))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Recomputation matches the approved results; nothing to propose"})
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "An open proposal already exists for this batch"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Original batch is not COMPLETED"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDataUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "Revision recomputation failed: " + err.Error()})
		default:
			logger.Error("Failed to create proposal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal"})
		}
		return
	}

	logger.Info("Proposal drafted",
		slog.String("proposal_id", created.ProposalID),
		slog.String("type", string(created.Type)),
		slog.String("total_delta", created.TotalDelta.String()))
	c.JSON(http.StatusCreated, dto.ToProposalResponse(created))
}

// getProposalByID godoc
// @Summary Get a proposal with its deltas
// @Tags proposals
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} dto.ProposalResponse
// @Failure 404 {object} map[string]string "Proposal not found"
// @Failure 500 {object} map[string]string "Failed to retrieve proposal"
// @Router /tenants/{tenantID}/proposals/{proposalID} [get]
func (h *proposalHandler) getProposalByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	proposalID := c.Param("proposalID")

	proposal, err := h.proposalService.GetProposalByID(c.Request.Context(), tenantID, proposalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		} else {
			logger.Error("Failed to get proposal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve proposal"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToProposalResponse(proposal))
}

// listProposals godoc
// @Summary List proposals
// @Description Lists the tenant's proposals newest-first with token pagination.
// @Tags proposals
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListProposalsResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 500 {object} map[string]string "Failed to list proposals"
// @Router /tenants/{tenantID}/proposals [get]
func (h *proposalHandler) listProposals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var params dto.ListProposalsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.proposalService.ListProposals(c.Request.Context(), tenantID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list proposals", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list proposals"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// submitForReview godoc
// @Summary Submit a draft proposal for review
// @Description Transitions a DRAFT proposal to PENDING_REVIEW. This step is optional; a DRAFT can also be reviewed directly.
// @Tags proposals
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param proposalID path string true "Proposal ID"
// @Success 200 {object} dto.ProposalResponse
// @Failure 404 {object} map[string]string "Proposal not found"
// @Failure 409 {object} map[string]string "Proposal is not DRAFT"
// @Failure 500 {object} map[string]string "Failed to submit proposal"
// @Router /tenants/{tenantID}/proposals/{proposalID}/submit [post]
func (h *proposalHandler) submitForReview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	proposalID := c.Param("proposalID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	proposal, err := h.proposalService.SubmitForReview(c.Request.Context(), tenantID, proposalID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Only DRAFT proposals can be submitted for review"})
		default:
			logger.Error("Failed to submit proposal for review", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit proposal"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToProposalResponse(proposal))
}

// reviewProposal godoc
// @Summary Review a proposal
// @Description Records the terminal approve/reject decision. APPROVED and REJECTED proposals are immutable.
// @Tags proposals
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param proposalID path string true "Proposal ID"
// @Param review body dto.ReviewProposalRequest true "Review decision"
// @Success 200 {object} dto.ProposalResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Proposal not found"
// @Failure 409 {object} map[string]string "Proposal already reviewed"
// @Failure 500 {object} map[string]string "Failed to review proposal"
// @Router /tenants/{tenantID}/proposals/{proposalID}/review [post]
func (h *proposalHandler) reviewProposal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	proposalID := c.Param("proposalID")

	var req dto.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reviewerUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	proposal, err := h.proposalService.ReviewProposal(c.Request.Context(), tenantID, proposalID, req, reviewerUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Proposal has already been reviewed"})
		default:
			logger.Error("Failed to review proposal", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review proposal"})
		}
		return
	}

	logger.Info("Proposal reviewed",
		slog.String("proposal_id", proposalID),
		slog.String("status", string(proposal.Status)))
	c.JSON(http.StatusOK, dto.ToProposalResponse(proposal))
}
