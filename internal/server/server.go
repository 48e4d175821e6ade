// Package server exposes the accumulated lead collection behind a static
// shared secret: JSON and CSV views plus rotation status. Read-only; the
// pipeline is the only writer.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/rotation"
	"github.com/jasonsutter87/marketing-lead-generation/internal/engine/storage"
	"github.com/jasonsutter87/marketing-lead-generation/internal/export"
	"github.com/jasonsutter87/marketing-lead-generation/internal/model"
)

// Server serves the read-only query surface.
type Server struct {
	store      *storage.Store
	secret     string
	categories []string
	locations  []string
	log        *zap.Logger
	registry   *prometheus.Registry
}

// New builds a server. The secret must be non-empty; callers validate.
func New(store *storage.Store, secret string, categories, locations []string, log *zap.Logger, registry *prometheus.Registry) *Server {
	return &Server{
		store:      store,
		secret:     secret,
		categories: categories,
		locations:  locations,
		log:        log,
		registry:   registry,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/leads", s.withAuth(s.handleLeads))
	mux.HandleFunc("GET /api/leads.csv", s.withAuth(s.handleLeadsCSV))
	mux.HandleFunc("GET /api/status", s.withAuth(s.handleStatus))
	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// withAuth gates a handler on the shared secret, accepted as a ?secret=
// query parameter or a bearer token.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provided := r.URL.Query().Get("secret")
		if provided == "" {
			provided = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if s.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(s.secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.LoadLeads(r.Context())
	if err != nil {
		s.internalError(w, "loading leads", err)
		return
	}
	if leads == nil {
		leads = []model.Lead{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count": len(leads),
		"leads": leads,
	})
}

func (s *Server) handleLeadsCSV(w http.ResponseWriter, r *http.Request) {
	leads, err := s.store.LoadLeads(r.Context())
	if err != nil {
		s.internalError(w, "loading leads", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.csv"`)
	if err := export.WriteCSV(w, leads); err != nil {
		s.log.Error("writing csv", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.store.LoadRotation(r.Context())
	if err != nil {
		s.internalError(w, "loading rotation", err)
		return
	}
	history, err := s.store.LoadHistory(r.Context())
	if err != nil {
		s.internalError(w, "loading history", err)
		return
	}
	if history == nil {
		history = []model.RunHistoryEntry{}
	}

	category, location := rotation.Current(state, s.categories, s.locations)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rotation": state,
		"next": map[string]string{
			"category": category,
			"location": location,
		},
		"history": history,
	})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
