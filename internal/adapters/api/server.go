// Package api exposes the planning service over HTTP using gin. Optimization
// use cases dispatch through the mediator; entity CRUD talks to the
// repositories directly.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/andrescamacho/coldroute-go/internal/adapters/metrics"
	"github.com/andrescamacho/coldroute-go/internal/application/auth"
	"github.com/andrescamacho/coldroute-go/internal/application/common"
	"github.com/andrescamacho/coldroute-go/internal/domain/depot"
	"github.com/andrescamacho/coldroute-go/internal/domain/fleet"
	"github.com/andrescamacho/coldroute-go/internal/domain/planning"
	"github.com/andrescamacho/coldroute-go/internal/domain/shipment"
	"github.com/andrescamacho/coldroute-go/internal/infrastructure/config"
)

// Pinger checks broker connectivity for health reporting
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies gathers everything the HTTP surface needs
type Dependencies struct {
	Auth      *auth.Service
	Mediator  common.Mediator
	Vehicles  fleet.VehicleRepository
	Shipments shipment.Repository
	Depots    depot.Repository
	Routes    planning.RouteRepository
	DB        *gorm.DB
	Broker    Pinger
}

// Server is the HTTP transport
type Server struct {
	engine *gin.Engine
	http   *http.Server
	deps   Dependencies
}

// NewServer builds the engine with middleware and all route groups
func NewServer(cfg *config.ServerConfig, deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	engine.Use(RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	if cfg.MetricsEnabled && metrics.IsEnabled() {
		httpMetrics := metrics.NewHTTPMetricsCollector()
		if err := httpMetrics.Register(); err == nil {
			engine.Use(httpMetrics.Middleware())
		}
		engine.GET("/metrics", gin.WrapH(
			promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		))
	}

	server := &Server{
		engine: engine,
		deps:   deps,
		http: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
	server.registerRoutes()
	return server
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/auth/token", s.handleIssueToken)

	authed := v1.Group("")
	authed.Use(AuthMiddleware(s.deps.Auth))

	authed.GET("/auth/me", s.handleCurrentUser)

	authed.POST("/optimization", s.handleSubmitOptimization)
	authed.GET("/optimization", s.handleListJobs)
	authed.GET("/optimization/:job_id", s.handleJobStatus)
	authed.POST("/optimization/:job_id/cancel", s.handleCancelJob)
	authed.GET("/optimization/:job_id/violations", s.handleJobViolations)

	authed.GET("/routes", s.handleListRoutes)
	authed.GET("/routes/:route_id", s.handleGetRoute)
	authed.GET("/routes/:route_id/temperature-analysis", s.handleTemperatureAnalysis)
	authed.PATCH("/routes/:route_id/status", s.handleUpdateRouteStatus)
	authed.PATCH("/routes/:route_id/stops/:stop_id", s.handleUpdateStop)

	authed.GET("/vehicles", s.handleListVehicles)
	authed.POST("/vehicles", s.handleCreateVehicle)
	authed.GET("/vehicles/:vehicle_id", s.handleGetVehicle)
	authed.PUT("/vehicles/:vehicle_id", s.handleUpdateVehicle)
	authed.DELETE("/vehicles/:vehicle_id", s.handleDeleteVehicle)
	authed.GET("/vehicles/:vehicle_id/thermodynamics", s.handleVehicleThermodynamics)

	authed.GET("/shipments", s.handleListShipments)
	authed.GET("/shipments/pending", s.handleListPendingShipments)
	authed.POST("/shipments", s.handleCreateShipment)
	authed.POST("/shipments/batch", s.handleCreateShipmentsBatch)
	authed.POST("/shipments/reset", s.handleResetShipments)
	authed.GET("/shipments/:shipment_id", s.handleGetShipment)
	authed.PUT("/shipments/:shipment_id", s.handleUpdateShipment)
	authed.DELETE("/shipments/:shipment_id", s.handleDeleteShipment)

	authed.GET("/depots", s.handleListDepots)
	authed.POST("/depots", s.handleCreateDepot)
	authed.GET("/depots/:depot_id", s.handleGetDepot)
	authed.PUT("/depots/:depot_id", s.handleUpdateDepot)
	authed.DELETE("/depots/:depot_id", s.handleDeleteDepot)
}

// Run starts serving and blocks until the listener closes
func (s *Server) Run() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Engine exposes the router for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
