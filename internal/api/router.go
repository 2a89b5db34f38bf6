// Package api exposes the brand-studio HTTP surface.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/config"
	"github.com/jonesrussell/brand-studio/internal/logger"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

const serviceVersion = "1.0.0"

// Router holds the API dependencies
type Router struct {
	service *studio.Service
	cfg     *config.Config
	log     logger.Logger
}

// NewRouter creates a new API router
func NewRouter(service *studio.Service, cfg *config.Config, log logger.Logger) *Router {
	return &Router{
		service: service,
		cfg:     cfg,
		log:     log,
	}
}

// SetupRoutes builds the gin engine with all routes and middleware.
func (r *Router) SetupRoutes() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(actorMiddleware())

	// Health check (public, no auth)
	router.GET("/health", r.healthCheck)

	v1 := router.Group("/api/v1/brand-studio")

	// Candidate discovery
	sources := v1.Group("/sources")
	sources.GET("/candidates", r.listCandidates)
	sources.POST("/refresh", r.refreshCandidates)

	// Strategy registry and active config
	v1.GET("/config", r.getConfig)
	v1.PUT("/config", r.saveConfig)
	strategies := v1.Group("/strategies")
	strategies.GET("", r.listStrategies)
	strategies.POST("", r.createStrategy)
	strategies.PUT("/:id", r.updateStrategy)
	strategies.POST("/:id/activate", r.activateStrategy)
	strategies.DELETE("/:id", r.deleteStrategy)

	// Drafts
	drafts := v1.Group("/drafts")
	drafts.POST("/generate", r.generateDraft)
	drafts.POST("/:id/queue", r.enqueueDraft)

	// Publish queue
	queue := v1.Group("/queue")
	queue.GET("", r.listQueue)
	queue.POST("/:id/publish", r.publishQueueItem)

	// Credential profiles
	profiles := v1.Group("/credential-profiles")
	profiles.GET("", r.listProfiles)
	profiles.POST("", r.createProfile)
	profiles.GET("/:id", r.getProfile)
	profiles.PUT("/:id", r.updateProfile)
	profiles.POST("/:id/activate", r.activateProfile)
	profiles.POST("/:id/test", r.testProfile)
	profiles.DELETE("/:id", r.deleteProfile)

	// Audit log
	v1.GET("/audit", r.listAudit)

	return router
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "brand-studio",
		"version": serviceVersion,
	})
}
