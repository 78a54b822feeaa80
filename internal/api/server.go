package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/congenital-syphilis-mcp-server/internal/domain"
	"github.com/congenital-syphilis-mcp-server/internal/middleware"
	"github.com/congenital-syphilis-mcp-server/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	evaluator     *service.EvaluationService
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, evaluator *service.EvaluationService, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(cfg.RateLimit))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		evaluator:     evaluator,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/evaluate", s.handleEvaluate)
		v1.POST("/classify", s.handleClassify)
		v1.POST("/titers/fourfold", s.handleFourfold)
		v1.POST("/titers/series", s.handleSeries)
		v1.POST("/trend", s.handleTrend)
		v1.POST("/treatment-timing", s.handleTreatmentTiming)
		v1.GET("/categories/:id", s.handleGetCategory)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now(),
		"version":        Version,
		"dataset_source": s.evaluator.Lookup().SourceName(),
	})
}

// handleEvaluate runs the full evaluation pipeline
func (s *Server) handleEvaluate(c *gin.Context) {
	var req service.EvaluationRequest
	if !s.bind(c, &req) {
		return
	}

	result, err := s.evaluator.Evaluate(c.Request.Context(), &req)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type classifyRequest struct {
	Approach string                  `json:"approach"`
	Input    domain.RawClinicalInput `json:"input"`
}

type classifyResponse struct {
	Outcome            domain.OutcomeCategory `json:"outcome"`
	OutcomeLabel       string                 `json:"outcome_label"`
	RequiresEvaluation bool                   `json:"requires_evaluation"`
	Warnings           []string               `json:"warnings,omitempty"`
}

// handleClassify returns the outcome code only, without dataset lookup
func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if !s.bind(c, &req) {
		return
	}

	approach, err := domain.ParseApproach(req.Approach)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation,
			"Invalid approach", fmt.Sprintf("approach %q must be conventional or reverse", req.Approach))
		return
	}

	input, warnings := req.Input.Normalize()
	outcome := s.evaluator.Engine().Classify(approach, input)

	c.JSON(http.StatusOK, classifyResponse{
		Outcome:            outcome,
		OutcomeLabel:       outcome.String(),
		RequiresEvaluation: outcome.RequiresEvaluation(),
		Warnings:           warnings,
	})
}

type fourfoldRequest struct {
	A any `json:"a"`
	B any `json:"b"`
}

// handleFourfold compares two titers
func (s *Server) handleFourfold(c *gin.Context) {
	var req fourfoldRequest
	if !s.bind(c, &req) {
		return
	}

	fourfold, err := service.IsFourfoldOrGreaterRaw(req.A, req.B)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid titer", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"fourfold": fourfold})
}

type seriesRequest struct {
	Subject      string                  `json:"subject"`
	Observations []domain.RawObservation `json:"observations"`
}

// handleSeries filters and orders one subject's observations
func (s *Server) handleSeries(c *gin.Context) {
	var req seriesRequest
	if !s.bind(c, &req) {
		return
	}

	subject := domain.Subject(req.Subject)
	if req.Subject == "" {
		subject = domain.SubjectMaternal
	}
	if !subject.IsValid() {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation,
			"Invalid subject", fmt.Sprintf("subject %q must be maternal or infant", req.Subject))
		return
	}

	c.JSON(http.StatusOK, service.ProcessSeries(subject, req.Observations))
}

type trendRequest struct {
	MaternalTiters []domain.RawObservation `json:"maternal_titers"`
	InfantTiters   []domain.RawObservation `json:"infant_titers"`
}

type trendResponse struct {
	service.TrendData
	Reinfection *service.ReinfectionAlert `json:"reinfection,omitempty"`
}

// handleTrend prepares chart data for both subjects
func (s *Server) handleTrend(c *gin.Context) {
	var req trendRequest
	if !s.bind(c, &req) {
		return
	}

	maternal := service.ProcessSeries(domain.SubjectMaternal, req.MaternalTiters)
	infant := service.ProcessSeries(domain.SubjectInfant, req.InfantTiters)

	c.JSON(http.StatusOK, trendResponse{
		TrendData:   service.PrepareTrend(maternal.Sorted, infant.Sorted),
		Reinfection: service.DetectMaternalReinfection(maternal.Sorted),
	})
}

// handleTreatmentTiming checks maternal treatment dates against delivery
func (s *Server) handleTreatmentTiming(c *gin.Context) {
	var req domain.TreatmentTimeline
	if !s.bind(c, &req) {
		return
	}

	alerts, err := service.ValidateTreatmentTiming(req)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid treatment dates", err.Error())
		return
	}
	if alerts == nil {
		alerts = []service.TimingAlert{}
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// handleGetCategory resolves display content for one outcome code
func (s *Server) handleGetCategory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || !domain.OutcomeCategory(id).IsValid() {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput,
			"Invalid category id", fmt.Sprintf("%q is not an outcome code between 0 and 6", c.Param("id")))
		return
	}

	content := s.evaluator.Lookup().Resolve(c.Request.Context(), domain.OutcomeCategory(id))
	if content.Status == domain.LookupRetrievalError {
		s.respondError(c, http.StatusServiceUnavailable, domain.ErrDataset,
			content.Name, "category dataset "+s.evaluator.Lookup().SourceName()+" is unavailable")
		return
	}

	c.JSON(http.StatusOK, content)
}

// bind decodes the JSON body and writes a 400 on failure.
func (s *Server) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Malformed request body", err.Error())
		return false
	}
	return true
}

func (s *Server) respondServiceError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		s.respondError(c, http.StatusBadRequest, domain.ErrValidation, validationErr.Message, validationErr.Error())
		return
	}

	s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).
		Error("Evaluation failed")
	s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "Evaluation failed", "")
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Correlation-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
