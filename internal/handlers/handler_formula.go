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

// formulaHandler handles HTTP requests related to formulas.
type formulaHandler struct {
	formulaService portssvc.FormulaSvcFacade
}

func newFormulaHandler(fs portssvc.FormulaSvcFacade) *formulaHandler {
	return &formulaHandler{
		formulaService: fs,
	}
}

// registerFormulaRoutes registers routes related to formulas.
func registerFormulaRoutes(rg *gin.RouterGroup, formulaService portssvc.FormulaSvcFacade) {
	h := newFormulaHandler(formulaService)

	formulas := rg.Group("/formulas")
	{
		formulas.POST("", h.createFormula)
		formulas.GET("", h.listFormulas)
		formulas.GET("/:formulaID", h.getFormulaByID)
	}
}

// createFormula godoc
// @Summary Author a new formula
// @Description Validates the directed graph structurally (output present, edges known, no cycles reaching the output, node configs complete) and persists it. Invalid graphs are rejected before any batch can reference them.
// @Tags formulas
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param formula body dto.CreateFormulaRequest true "Formula definition"
// @Success 201 {object} dto.FormulaResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 422 {object} map[string]string "Structurally invalid graph"
// @Failure 500 {object} map[string]string "Failed to create formula"
// @Router /tenants/{tenantID}/formulas [post]
func (h *formulaHandler) createFormula(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var req dto.CreateFormulaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateFormula", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.formulaService.CreateFormula(c.Request.Context(), tenantID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrStructural):
			logger.Warn("Rejected structurally invalid formula", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create formula", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create formula"})
		}
		return
	}

	logger.Info("Formula created", slog.String("formula_id", created.FormulaID))
	c.JSON(http.StatusCreated, dto.ToFormulaResponse(created))
}

// getFormulaByID godoc
// @Summary Get a formula by ID
// @Tags formulas
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param formulaID path string true "Formula ID"
// @Success 200 {object} dto.FormulaResponse
// @Failure 404 {object} map[string]string "Formula not found"
// @Failure 500 {object} map[string]string "Failed to retrieve formula"
// @Router /tenants/{tenantID}/formulas/{formulaID} [get]
func (h *formulaHandler) getFormulaByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	formulaID := c.Param("formulaID")

	formula, err := h.formulaService.GetFormulaByID(c.Request.Context(), tenantID, formulaID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Formula not found"})
		} else {
			logger.Error("Failed to get formula", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve formula"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToFormulaResponse(formula))
}

// listFormulas godoc
// @Summary List formulas
// @Tags formulas
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} dto.FormulaResponse
// @Failure 500 {object} map[string]string "Failed to list formulas"
// @Router /tenants/{tenantID}/formulas [get]
func (h *formulaHandler) listFormulas(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	formulas, err := h.formulaService.ListFormulas(c.Request.Context(), tenantID)
	if err != nil {
		logger.Error("Failed to list formulas", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list formulas"})
		return
	}
	c.JSON(http.StatusOK, dto.ToListFormulaResponse(formulas))
}
