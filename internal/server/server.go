// Package server exposes read-only REST introspection over the
// configured providers: their declared capabilities and the most recent
// update each one delivered.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaneworks/weathervane/internal/types"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// providerInfo is the capability document served for one provider.
type providerInfo struct {
	Name                    string   `json:"name"`
	Attribution             string   `json:"attribution"`
	ReportCharacteristics   []string `json:"report_characteristics"`
	ForecastCharacteristics []string `json:"forecast_characteristics"`
	ForecastDays            int      `json:"forecast_days"`
}

// latestResponse wraps a provider's most recent update with its
// delivery time.
type latestResponse struct {
	Provider   string               `json:"provider"`
	ReceivedAt time.Time            `json:"received_at"`
	Update     *types.WeatherUpdate `json:"update"`
}

// Server is the REST introspection server.
type Server struct {
	logger *zap.SugaredLogger
	srv    *http.Server

	mu     sync.RWMutex
	meta   map[string]types.Metadata
	latest map[string]latestResponse
}

// New creates a server listening on addr.
func New(logger *zap.SugaredLogger, addr string) *Server {
	s := &Server{
		logger: logger.Named("server"),
		meta:   make(map[string]types.Metadata),
		latest: make(map[string]latestResponse),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/providers", s.handleProviders).Methods(http.MethodGet)
	router.HandleFunc("/api/latest/{provider}", s.handleLatest).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// RegisterProvider publishes a provider's static capability metadata.
func (s *Server) RegisterProvider(name string, meta types.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta[name] = meta
}

// SetLatest records the most recent successful update for a provider.
func (s *Server) SetLatest(name string, update *types.WeatherUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[name] = latestResponse{
		Provider:   name,
		ReceivedAt: time.Now().UTC(),
		Update:     update,
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.logger.Infof("REST server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("REST server error: %v", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Handler returns the route handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	infos := make([]providerInfo, 0, len(s.meta))
	for name, meta := range s.meta {
		infos = append(infos, providerInfo{
			Name:                    name,
			Attribution:             meta.Attribution,
			ReportCharacteristics:   meta.ReportCharacteristics,
			ForecastCharacteristics: meta.ForecastCharacteristics,
			ForecastDays:            meta.ForecastDays,
		})
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	s.writeJSON(w, infos)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]

	s.mu.RLock()
	resp, ok := s.latest[name]
	s.mu.RUnlock()

	if !ok {
		s.mu.RLock()
		_, known := s.meta[name]
		s.mu.RUnlock()
		if !known {
			http.Error(w, fmt.Sprintf("unknown provider %q", name), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("no update received yet from %q", name), http.StatusNotFound)
		return
	}

	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("failed to encode response: %v", err)
	}
}
