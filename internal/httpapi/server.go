// Package httpapi is the HTTP transport for the service: analysis module
// discovery and execution, LLM provider and model management, quick-test
// invocation (sync and SSE streaming), and system settings.
//
// It owns no business logic; it maps between HTTP and the domain packages,
// including translating the analysis error taxonomy to status codes.
package httpapi

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/internal/llm"
	"github.com/vk/promptworks/internal/runner"
	"github.com/vk/promptworks/internal/settings"
	"github.com/vk/promptworks/internal/store"
)

// Server bundles the collaborators the HTTP handlers need.
type Server struct {
	logger   *slog.Logger
	registry *analysis.Registry
	runner   *runner.Runner
	store    *store.Store
	llm      *llm.Client
	settings *settings.Service
}

// NewServer creates the transport layer over its collaborators.
func NewServer(
	logger *slog.Logger,
	registry *analysis.Registry,
	run *runner.Runner,
	st *store.Store,
	llmClient *llm.Client,
	settingsService *settings.Service,
) *Server {
	return &Server{
		logger:   logger,
		registry: registry,
		runner:   run,
		store:    st,
		llm:      llmClient,
		settings: settingsService,
	}
}

// ginModeOnce guards the global mode switch; Handler may be called from
// concurrent test fixtures.
var ginModeOnce sync.Once

// Handler builds the gin engine with all routes mounted.
func (s *Server) Handler() http.Handler {
	ginModeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/health", s.health)

	v1 := engine.Group("/api/v1")
	{
		analysisGroup := v1.Group("/analysis")
		analysisGroup.GET("/modules", s.listAnalysisModules)
		analysisGroup.POST("/modules/execute", s.executeAnalysisModule)

		llms := v1.Group("/llms")
		llms.GET("/common", s.listCommonProviders)
		llms.GET("/quick-test/history", s.listQuickTestHistory)
		llms.GET("", s.listProviders)
		llms.POST("", s.createProvider)
		llms.GET("/:id", s.getProvider)
		llms.PATCH("/:id", s.updateProvider)
		llms.DELETE("/:id", s.deleteProvider)
		llms.POST("/:id/models", s.createModel)
		llms.PATCH("/:id/models/:modelID", s.updateModel)
		llms.DELETE("/:id/models/:modelID", s.deleteModel)
		llms.POST("/:id/invoke", s.invokeProvider)
		llms.POST("/:id/invoke/stream", s.streamInvokeProvider)

		settingsGroup := v1.Group("/settings")
		settingsGroup.GET("/testing", s.getTestingTimeouts)
		settingsGroup.PUT("/testing", s.updateTestingTimeouts)
	}

	return engine
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// requestLogger logs each request at debug level with its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("Handled HTTP request.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

// detail is the uniform error body shape.
func detail(message any) gin.H {
	return gin.H{"detail": message}
}
