package handlers

import (
	"github.com/Numraio/cpam-sub003/cmd/docs"
	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/ingestion"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/Numraio/cpam-sub003/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	cal *calendar.Calendar,
	ing *ingestion.Ingester,
) {
	// Health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupAPIV1Routes(r, services, cal, ing)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the tenant-scoped /api/v1 group and delegates to
// specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	cal *calendar.Calendar,
	ing *ingestion.Ingester,
) {
	// Every v1 route is tenant-scoped and requires a gateway-provided caller
	// identity.
	v1 := r.Group("/api/v1/tenants/:tenantID", middleware.IdentityMiddleware())

	registerSeriesRoutes(v1, services.Series, ing)
	registerFormulaRoutes(v1, services.Formula)
	registerContractRoutes(v1, services.Contract)
	registerBatchRoutes(v1, services.Batch)
	registerProposalRoutes(v1, services.Proposal)
	registerCalendarRoutes(v1, cal)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
