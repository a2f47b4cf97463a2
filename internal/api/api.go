// Package api serves the diagnosis engine over HTTP.
package api

import (
	"net/http"

	"github.com/kamilpajak/diagnosa/internal/catalog"
	"github.com/kamilpajak/diagnosa/internal/narrative"
	"github.com/kamilpajak/diagnosa/pkg/engine"
	"go.uber.org/zap"
)

// Server is the API server.
type Server struct {
	catalog   catalog.Provider
	engine    *engine.Engine
	explainer *narrative.Explainer
	logger    *zap.Logger
	mux       *http.ServeMux
}

// Config holds API server configuration.
type Config struct {
	Catalog   catalog.Provider
	Engine    *engine.Engine       // nil uses the default rules with prior seeds
	Explainer *narrative.Explainer // nil disables POST /api/explain
	Logger    *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:   cfg.Catalog,
		engine:    cfg.Engine,
		explainer: cfg.Explainer,
		logger:    cfg.Logger,
		mux:       http.NewServeMux(),
	}
	if s.engine == nil {
		s.engine = engine.New(engine.Config{})
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/symptoms", s.handleListSymptoms)
	s.mux.HandleFunc("GET /api/damages", s.handleListDamages)
	s.mux.HandleFunc("GET /api/damages/{code}", s.handleGetDamage)
	s.mux.HandleFunc("GET /api/rules", s.handleListRules)
	s.mux.HandleFunc("POST /api/diagnose", s.handleDiagnose)
	s.mux.HandleFunc("POST /api/explain", s.handleExplain)
	s.mux.HandleFunc("POST /api/explain/stream", s.handleExplainStream)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
