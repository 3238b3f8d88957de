// Package api provides HTTP handlers for the review engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alif-engine/core/pkg/config"
	"github.com/alif-engine/core/pkg/database"
	"github.com/alif-engine/core/pkg/dispatch"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/queue"
	"github.com/alif-engine/core/pkg/selector"
	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
	"github.com/alif-engine/core/pkg/version"
)

// Server is the HTTP API server fronting the review engine.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	store       *store.Store
	dbClient    *database.Client
	llmRegistry *config.LLMProviderRegistry

	selector    *selector.Service            // nil until set
	dispatch    *dispatch.Service            // nil until set
	grammar     *grammar.Service             // nil until set
	acquisition *services.AcquisitionService // nil until set
	srs         *services.SRSService         // nil until set
	workerPool  *queue.WorkerPool            // nil until set (health reporting only)
}

// NewServer creates a new API server. Domain services are wired in
// afterward via the Set* methods, mirroring the teacher's staged-wiring
// pattern so main can construct the store/DB client first and services
// that depend on each other in whatever order is convenient.
func NewServer(s *store.Store, dbClient *database.Client, llmRegistry *config.LLMProviderRegistry) *Server {
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery())

	srv := &Server{
		engine:      e,
		store:       s,
		dbClient:    dbClient,
		llmRegistry: llmRegistry,
	}
	srv.setupRoutes()
	return srv
}

// SetSelector wires C4's session-assembly service.
func (s *Server) SetSelector(svc *selector.Service) { s.selector = svc }

// SetDispatch wires C5's review dispatcher.
func (s *Server) SetDispatch(svc *dispatch.Service) { s.dispatch = svc }

// SetGrammar wires C7/C11's grammar tracker and lesson surface.
func (s *Server) SetGrammar(svc *grammar.Service) { s.grammar = svc }

// SetAcquisition wires C2's acquisition engine for the manual
// start-acquisition trigger.
func (s *Server) SetAcquisition(svc *services.AcquisitionService) { s.acquisition = svc }

// SetSRS wires C3's scheduler for reintroduction results and undo.
func (s *Server) SetSRS(svc *services.SRSService) { s.srs = svc }

// SetWorkerPool wires the background job pool for health reporting.
func (s *Server) SetWorkerPool(pool *queue.WorkerPool) { s.workerPool = pool }

// ValidateWiring checks that every required domain service has been wired
// via its Set* method, so a missing dependency fails fast at startup
// instead of surfacing as a nil-pointer panic on first request.
func (s *Server) ValidateWiring() error {
	var errs []error
	if s.selector == nil {
		errs = append(errs, fmt.Errorf("selector not set (call SetSelector)"))
	}
	if s.dispatch == nil {
		errs = append(errs, fmt.Errorf("dispatch not set (call SetDispatch)"))
	}
	if s.grammar == nil {
		errs = append(errs, fmt.Errorf("grammar not set (call SetGrammar)"))
	}
	if s.acquisition == nil {
		errs = append(errs, fmt.Errorf("acquisition not set (call SetAcquisition)"))
	}
	if s.srs == nil {
		errs = append(errs, fmt.Errorf("srs not set (call SetSRS)"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("server wiring incomplete: %w", errors.Join(errs...))
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	review := s.engine.Group("/api/review")
	review.GET("/next-sentences", s.nextSentencesHandler)
	review.GET("/next-listening", s.nextListeningHandler)
	review.POST("/submit-sentence", s.submitSentenceHandler)
	review.POST("/sync", s.syncHandler)
	review.POST("/reintro-result", s.reintroResultHandler)
	review.POST("/undo-sentence", s.undoSentenceHandler)

	gram := s.engine.Group("/api/grammar")
	gram.GET("/:feature_key", s.getGrammarLessonHandler)
	gram.POST("/:feature_key/introduce", s.introduceGrammarFeatureHandler)

	flags := s.engine.Group("/api/flags")
	flags.POST("", s.createFlagHandler)
	flags.GET("", s.listFlagsHandler)

	words := s.engine.Group("/api/words")
	words.POST("/:lemma_id/start-acquisition", s.startAcquisitionHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := &HealthResponse{Status: "healthy", Version: version.Full()}

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	resp.Database = dbHealth
	if err != nil {
		resp.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	if s.workerPool != nil {
		resp.WorkerPool = s.workerPool.Health()
		if !resp.WorkerPool.IsHealthy {
			resp.Status = "degraded"
		}
	}

	if s.llmRegistry != nil {
		names := make([]string, 0, s.llmRegistry.Len())
		for _, p := range s.llmRegistry.Ordered() {
			names = append(names, p.Name)
		}
		resp.LLMProviders = names
		if len(names) == 0 {
			resp.Status = "degraded"
		}
	}

	c.JSON(http.StatusOK, resp)
}
