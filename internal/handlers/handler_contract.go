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

// contractHandler handles HTTP requests related to contracts.
type contractHandler struct {
	contractService portssvc.ContractSvcFacade
}

func newContractHandler(cs portssvc.ContractSvcFacade) *contractHandler {
	return &contractHandler{
		contractService: cs,
	}
}

// registerContractRoutes registers routes related to contracts.
func registerContractRoutes(rg *gin.RouterGroup, contractService portssvc.ContractSvcFacade) {
	h := newContractHandler(contractService)

	contracts := rg.Group("/contracts")
	{
		contracts.POST("", h.createContract)
		contracts.GET("", h.listContracts)
		contracts.GET("/:contractID", h.getContractByID)
	}
}

// createContract godoc
// @Summary Create a new contract
// @Description Creates a contract bound to a formula together with its priced line items.
// @Tags contracts
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param contract body dto.CreateContractRequest true "Contract details"
// @Success 201 {object} dto.ContractResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Formula not found"
// @Failure 500 {object} map[string]string "Failed to create contract"
// @Router /tenants/{tenantID}/contracts [post]
func (h *contractHandler) createContract(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var req dto.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateContract", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.contractService.CreateContract(c.Request.Context(), tenantID, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Formula not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create contract", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contract"})
		}
		return
	}

	logger.Info("Contract created", slog.String("contract_id", created.ContractID))
	c.JSON(http.StatusCreated, dto.ToContractResponse(created, nil))
}

// getContractByID godoc
// @Summary Get a contract with its line items
// @Tags contracts
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param contractID path string true "Contract ID"
// @Success 200 {object} dto.ContractResponse
// @Failure 404 {object} map[string]string "Contract not found"
// @Failure 500 {object} map[string]string "Failed to retrieve contract"
// @Router /tenants/{tenantID}/contracts/{contractID} [get]
func (h *contractHandler) getContractByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	contractID := c.Param("contractID")

	contract, items, err := h.contractService.GetContractByID(c.Request.Context(), tenantID, contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		} else {
			logger.Error("Failed to get contract", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve contract"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToContractResponse(contract, items))
}

// listContracts godoc
// @Summary List contracts
// @Tags contracts
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} dto.ContractResponse
// @Failure 500 {object} map[string]string "Failed to list contracts"
// @Router /tenants/{tenantID}/contracts [get]
func (h *contractHandler) listContracts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	contracts, err := h.contractService.ListContracts(c.Request.Context(), tenantID)
	if err != nil {
		logger.Error("Failed to list contracts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts"})
		return
	}

	responses := make([]dto.ContractResponse, len(contracts))
	for i := range contracts {
		responses[i] = dto.ToContractResponse(&contracts[i], nil)
	}
	c.JSON(http.StatusOK, responses)
}
