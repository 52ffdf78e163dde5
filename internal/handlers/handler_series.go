package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/ingestion"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/gin-gonic/gin"
)

const dateQueryFormat = "2006-01-02"

// seriesHandler handles HTTP requests related to series and observations.
type seriesHandler struct {
	seriesService portssvc.SeriesSvcFacade
	ingester      *ingestion.Ingester
}

func newSeriesHandler(ss portssvc.SeriesSvcFacade, ing *ingestion.Ingester) *seriesHandler {
	return &seriesHandler{
		seriesService: ss,
		ingester:      ing,
	}
}

// registerSeriesRoutes registers routes related to series and observations.
func registerSeriesRoutes(rg *gin.RouterGroup, seriesService portssvc.SeriesSvcFacade, ing *ingestion.Ingester) {
	h := newSeriesHandler(seriesService, ing)

	series := rg.Group("/series")
	{
		series.POST("", h.createSeries)
		series.GET("", h.listSeries)
		series.GET("/:code", h.getSeriesByCode)
		series.GET("/:code/observations", h.listObservations)
		series.POST("/:code/observations", h.ingestObservation)
		series.POST("/:code/observations/bulk", h.ingestBulk)
		series.GET("/:code/resolve", h.resolveObservation)
	}
}

// createSeries godoc
// @Summary Register a new series
// @Description Registers a market index series for the tenant. Codes are unique per tenant and stored uppercase.
// @Tags series
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param series body dto.CreateSeriesRequest true "Series details"
// @Success 201 {object} dto.SeriesResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Series code already exists"
// @Failure 500 {object} map[string]string "Failed to create series"
// @Router /tenants/{tenantID}/series [post]
func (h *seriesHandler) createSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSeries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	created, err := h.seriesService.CreateSeries(c.Request.Context(), tenantID, req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Attempted to create duplicate series", slog.String("code", req.Code))
			c.JSON(http.StatusConflict, gin.H{"error": "Series code '" + req.Code + "' already exists"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create series", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create series"})
		}
		return
	}

	logger.Info("Series created", slog.String("code", created.Code))
	c.JSON(http.StatusCreated, dto.ToSeriesResponse(created))
}

// listSeries godoc
// @Summary List series
// @Description Lists every series owned by the tenant ordered by code
// @Tags series
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Success 200 {array} dto.SeriesResponse
// @Failure 500 {object} map[string]string "Failed to list series"
// @Router /tenants/{tenantID}/series [get]
func (h *seriesHandler) listSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	series, err := h.seriesService.ListSeries(c.Request.Context(), tenantID)
	if err != nil {
		logger.Error("Failed to list series", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list series"})
		return
	}

	responses := make([]dto.SeriesResponse, len(series))
	for i := range series {
		responses[i] = dto.ToSeriesResponse(&series[i])
	}
	c.JSON(http.StatusOK, responses)
}

// getSeriesByCode godoc
// @Summary Get a series by code
// @Tags series
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param code path string true "Series code"
// @Success 200 {object} dto.SeriesResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 500 {object} map[string]string "Failed to retrieve series"
// @Router /tenants/{tenantID}/series/{code} [get]
func (h *seriesHandler) getSeriesByCode(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	code := c.Param("code")

	series, err := h.seriesService.GetSeriesByCode(c.Request.Context(), tenantID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		} else {
			logger.Error("Failed to get series", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve series"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToSeriesResponse(series))
}

// listObservations godoc
// @Summary List observations of a series
// @Tags series
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param code path string true "Series code"
// @Success 200 {array} dto.ObservationResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 500 {object} map[string]string "Failed to list observations"
// @Router /tenants/{tenantID}/series/{code}/observations [get]
func (h *seriesHandler) listObservations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	code := c.Param("code")

	obs, err := h.seriesService.ListObservations(c.Request.Context(), tenantID, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		} else {
			logger.Error("Failed to list observations", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list observations"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToListObservationResponse(obs))
}

// ingestObservation godoc
// @Summary Ingest one observation
// @Description Upserts an observation under the (series, date, tag) uniqueness invariant. Re-ingesting an identical value is a no-op.
// @Tags series
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param code path string true "Series code"
// @Param observation body dto.IngestObservationRequest true "Observation record"
// @Success 200 {object} dto.ObservationResponse "Unchanged (no-op re-ingestion)"
// @Success 201 {object} dto.ObservationResponse "Written"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 500 {object} map[string]string "Failed to ingest observation"
// @Router /tenants/{tenantID}/series/{code}/observations [post]
func (h *seriesHandler) ingestObservation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	code := c.Param("code")

	var req dto.IngestObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	obs, changed, err := h.seriesService.IngestObservation(c.Request.Context(), tenantID, code, req, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to ingest observation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest observation"})
		}
		return
	}

	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToObservationResponse(obs))
}

// ingestBulk godoc
// @Summary Bulk-ingest observations
// @Description Upserts a batch of observation records through the paced, retrying ingestion loop. Per-record failures are counted, not fatal.
// @Tags series
// @Accept json
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param code path string true "Series code"
// @Param observations body dto.BulkIngestRequest true "Observation records"
// @Success 200 {object} ingestion.Report
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to ingest observations"
// @Router /tenants/{tenantID}/series/{code}/observations/bulk [post]
func (h *seriesHandler) ingestBulk(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	code := c.Param("code")

	var req dto.BulkIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	report, err := h.ingester.IngestBulk(c.Request.Context(), tenantID, code, req, creatorUserID)
	if err != nil && report.Written == 0 && report.Unchanged == 0 {
		logger.Error("Bulk ingestion failed entirely", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ingest observations", "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// resolveObservation godoc
// @Summary Resolve an observation under a version preference
// @Description Returns the applicable observation for a date under the preferred tag and fallback mode. With atOrBefore=true the most recent observation at or before the date is returned instead of an exact-date match.
// @Tags series
// @Produce json
// @Param tenantID path string true "Tenant ID"
// @Param code path string true "Series code"
// @Param date query string true "Target date (YYYY-MM-DD)"
// @Param preferred query string true "Preferred version tag" Enums(PRELIMINARY, FINAL, REVISED)
// @Param fallback query string false "Fallback mode" Enums(FALLBACK_CHAIN, STRICT_MATCH) default(FALLBACK_CHAIN)
// @Param atOrBefore query bool false "Resolve latest at-or-before instead of exact date"
// @Success 200 {object} dto.ObservationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "No resolvable observation"
// @Failure 500 {object} map[string]string "Failed to resolve observation"
// @Router /tenants/{tenantID}/series/{code}/resolve [get]
func (h *seriesHandler) resolveObservation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	code := c.Param("code")

	date, err := time.Parse(dateQueryFormat, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	preferred := domain.VersionTag(c.Query("preferred"))
	if !preferred.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferred must be PRELIMINARY, FINAL or REVISED"})
		return
	}

	fallback := domain.FallbackMode(c.DefaultQuery("fallback", string(domain.FallbackChain)))
	if fallback != domain.FallbackChain && fallback != domain.StrictMatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fallback must be FALLBACK_CHAIN or STRICT_MATCH"})
		return
	}

	policy := domain.ResolutionPolicy{Preferred: preferred, Fallback: fallback}

	var obs *domain.Observation
	if c.Query("atOrBefore") == "true" {
		obs, err = h.seriesService.ResolveLatestAtOrBefore(c.Request.Context(), tenantID, code, date, policy)
	} else {
		obs, err = h.seriesService.Resolve(c.Request.Context(), tenantID, code, date, policy)
	}
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDataUnavailable), errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No resolvable observation under the requested preference"})
		default:
			logger.Error("Failed to resolve observation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve observation"})
		}
		return
	}
	c.JSON(http.StatusOK, dto.ToObservationResponse(obs))
}
