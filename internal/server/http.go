package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/catalog"
	"github.com/opsre/gvmd/internal/config"
	"github.com/opsre/gvmd/internal/controller"
	"github.com/opsre/gvmd/internal/ledger"
)

// HTTPServer is the gin-based API surface over the lifecycle controller. It
// carries no business rules of its own: it authenticates the caller, hands
// the controller an explicit caller identity, and maps outcomes onto HTTP
// status codes.
type HTTPServer struct {
	config *config.Config
	engine *gin.Engine
	server *http.Server
	log    *zap.SugaredLogger

	auth  *AuthHandler
	vps   *VPSHandler
	admin *AdminHandler
}

// NewHTTPServer creates the HTTP server and wires all handlers.
func NewHTTPServer(cfg *config.Config, db *gorm.DB, ctrl *controller.Controller, cat *catalog.Catalog, led *ledger.Ledger, log *zap.SugaredLogger) *HTTPServer {
	if cfg.Server.HTTP.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &HTTPServer{
		config: cfg,
		engine: gin.New(),
		log:    log,
		auth:   NewAuthHandler(cfg, db, log),
		vps:    NewVPSHandler(ctrl, cat, log),
		admin:  NewAdminHandler(db, ctrl, led, log),
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// registerMiddlewares registers the global middleware chain.
func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.loggingMiddleware())
	s.engine.Use(s.corsMiddleware())
}

// loggingMiddleware logs every request with its status and duration.
func (s *HTTPServer) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.log.Infof("HTTP %s %s, status %d, duration %s, remote_addr %s",
			method, path, c.Writer.Status(), time.Since(start), c.ClientIP())
	}
}

// corsMiddleware allows cross-origin panel frontends.
func (s *HTTPServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// registerRoutes registers all routes.
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/health", s.handleHealth)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.auth.Register)
			auth.POST("/login", s.auth.Login)
		}

		authed := v1.Group("")
		authed.Use(s.authRequired())
		{
			authed.GET("/auth/userinfo", s.auth.GetUserInfo)
			authed.PUT("/auth/password", s.auth.ChangePassword)
			authed.PUT("/profile", s.auth.UpdateProfile)

			authed.GET("/plans", s.vps.ListPlans)
			authed.POST("/vps", s.vps.Create)
			authed.GET("/vps", s.vps.List)
			authed.POST("/vps/:id/start", s.vps.Start)
			authed.POST("/vps/:id/stop", s.vps.Stop)
			authed.POST("/vps/:id/restart", s.vps.Restart)
			authed.DELETE("/vps/:id", s.vps.Destroy)
			authed.GET("/vps/:id/stats", s.vps.Stats)
		}

		admin := v1.Group("/admin")
		admin.Use(s.authRequired(), s.adminRequired())
		{
			admin.GET("/users", s.admin.ListUsers)
			admin.POST("/users", s.admin.AddUser)
			admin.DELETE("/users/:id", s.admin.DeleteUser)
			admin.POST("/users/:id/credits", s.admin.ManageCredits)
			admin.GET("/vps", s.admin.ListAllVPS)
			admin.GET("/overview", s.admin.Overview)
		}
	}
}

// handleHealth reports liveness.
func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Code: 200, Message: "ok"})
}

// Start runs the HTTP server until it is shut down.
func (s *HTTPServer) Start() error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.config.Server.HTTP.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
	}

	s.log.Infof("starting HTTP server, addr %s", addr)
	return s.server.ListenAndServe()
}

// Stop gracefully shuts the HTTP server down.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Engine exposes the router, used by handler tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Response is the uniform response envelope.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// success writes a 200 envelope.
func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 200, Message: "Success", Data: data})
}

// fail writes an error envelope with the given status code.
func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Code: code, Message: message})
}
