package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

// routeDeps carries everything the router needs. Published is nil when
// persistence is disabled.
type routeDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *service.MetricsService
	tokens    *service.TokenService
	timetable *handler.TimetableHandler
	published *handler.PublishedTimetableHandler
	probes    *handler.MetricsHandler
}

func newRouter(deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.metrics))

	r.GET("/health", deps.probes.Health)
	r.GET("/ready", deps.probes.Ready)
	r.GET("/metrics", deps.probes.Prometheus)
	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.POST("/generate", deps.timetable.Generate)

	api := r.Group(deps.cfg.APIPrefix)
	timetables := api.Group("/timetables")
	timetables.POST("/generate", deps.timetable.Generate)
	timetables.POST("/jobs", internalmiddleware.OptionalJWT(deps.tokens), deps.timetable.SubmitJob)
	timetables.GET("/jobs/:id", deps.timetable.GetJob)

	if deps.published == nil {
		return r
	}
	admin := []gin.HandlerFunc{
		internalmiddleware.JWT(deps.tokens),
		internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
	}
	timetables.GET("", deps.published.List)
	timetables.GET("/teachers/:name", deps.published.TeacherTimetable)
	timetables.GET("/exports/:token", deps.published.DownloadExport)
	timetables.GET("/:id", deps.published.Get)
	timetables.GET("/:id/export", deps.published.Export)
	timetables.POST("/:id/export-links", append(admin, internalmiddleware.Audit(deps.logger, "timetable.export_link"), deps.published.CreateExportLink)...)
	timetables.POST("", append(admin, internalmiddleware.Audit(deps.logger, "timetable.publish"), deps.published.Publish)...)
	timetables.DELETE("/:id", append(admin, internalmiddleware.Audit(deps.logger, "timetable.delete"), deps.published.Delete)...)
	return r
}
