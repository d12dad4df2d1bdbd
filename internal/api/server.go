package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soochol/hydrahunt/internal/config"
	"github.com/soochol/hydrahunt/internal/services"
	"github.com/soochol/hydrahunt/internal/storage"
)

const (
	defaultMaxUploadSize = 50 << 20 // 50MB
	defaultBatchWorkers  = 4
	maxBatchFiles        = 20
)

type Server struct {
	imports         *services.ImportService
	storage         storage.Storage
	limiter         *services.ParseLimiter
	providerConfigs map[string]config.ProviderConfig
	parseProvider   string
	corsOrigins     []string
	maxUploadSize   int64
	batchWorkers    int
}

func NewServer(imports *services.ImportService, store storage.Storage) *Server {
	return &Server{
		imports:       imports,
		storage:       store,
		corsOrigins:   []string{"*"},
		maxUploadSize: defaultMaxUploadSize,
		batchWorkers:  defaultBatchWorkers,
	}
}

// SetProviderConfigs stores the provider configuration and the provider
// used for structured parsing.
func (s *Server) SetProviderConfigs(configs map[string]config.ProviderConfig, parseProvider string) {
	s.providerConfigs = configs
	s.parseProvider = parseProvider
}

// SetParseLimiter exposes parser usage on the providers endpoint.
func (s *Server) SetParseLimiter(limiter *services.ParseLimiter) {
	s.limiter = limiter
}

// SetCORSOrigins restricts the allowed origins. An empty list keeps "*".
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// SetMaxUploadSize bounds the request body of upload endpoints.
func (s *Server) SetMaxUploadSize(n int64) {
	if n > 0 {
		s.maxUploadSize = n
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", s.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Post("/resumes/upload", s.uploadResume)
		r.Post("/extract", s.extractText)
		r.Post("/extract/batch", s.extractBatch)
		r.Route("/imports", func(r chi.Router) {
			r.Get("/", s.listImports)
			r.Get("/{id}", s.getImport)
			r.Delete("/{id}", s.deleteImport)
		})
		r.Get("/files", s.listFiles)
		r.Get("/files/{id}", s.serveFile)
		r.Get("/providers", s.listProviders)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type providerInfo struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Model  string `json:"model,omitempty"`
	URL    string `json:"url,omitempty"`
	Active bool   `json:"active"`
}

type providersResponse struct {
	Providers []providerInfo         `json:"providers"`
	Parser    *services.LimiterStats `json:"parser,omitempty"`
}

// listProviders reports the configured completion providers. API keys are
// never included.
func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	resp := providersResponse{Providers: []providerInfo{}}
	for name, pc := range s.providerConfigs {
		resp.Providers = append(resp.Providers, providerInfo{
			Name:   name,
			Type:   pc.Type,
			Model:  pc.Model,
			URL:    pc.URL,
			Active: name == s.parseProvider,
		})
	}
	sort.Slice(resp.Providers, func(i, j int) bool { return resp.Providers[i].Name < resp.Providers[j].Name })
	if s.limiter != nil {
		stats := s.limiter.Stats()
		resp.Parser = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
