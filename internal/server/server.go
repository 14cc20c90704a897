package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barradesonido/bsops/internal/cache"
	"github.com/barradesonido/bsops/internal/database"
	"github.com/barradesonido/bsops/internal/frontend"
	"github.com/barradesonido/bsops/internal/logging"
)

// DefaultCacheTTL bounds how stale a cached ranking response may get.
const DefaultCacheTTL = 5 * time.Minute

// Server exposes the storefront read API over HTTP.
type Server struct {
	ranking  *frontend.Ranking
	repo     database.ProductRepository
	cache    cache.Client
	cacheTTL time.Duration
	log      logging.Logger

	httpServer *http.Server
}

// Options configures a Server. Cache is optional; without it every request
// hits the database.
type Options struct {
	Addr     string
	Ranking  *frontend.Ranking
	Repo     database.ProductRepository
	Cache    cache.Client
	CacheTTL time.Duration
	Log      logging.Logger
}

// New builds the Server and its route table.
func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	s := &Server{
		ranking:  opts.Ranking,
		repo:     opts.Repo,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      opts.Log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/api/v1/ranking", s.handleRanking)
	mux.HandleFunc("/api/v1/products/", s.handleProductBySlug)

	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.log.Info("storefront API listening", logging.Fields{"addr": s.httpServer.Addr})
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("pong"))
}

// handleRanking serves GET /api/v1/ranking?category=...&limit=N with a
// cache-aside strategy: the serialized response body is cached per
// category/limit pair.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	category := r.URL.Query().Get("category")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	key := rankingCacheKey(category, limit)
	if r.URL.Query().Get("refresh") == "1" {
		s.dropCached(r.Context(), key)
	} else if body, ok := s.cachedBody(r.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(body)
		return
	}

	entries, err := s.ranking.TopProducts(r.Context(), category, limit)
	if err != nil {
		s.log.Error("ranking request failed", logging.Fields{"error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "failed to build ranking")
		return
	}

	payload := map[string]interface{}{
		"category": category,
		"count":    len(entries),
		"products": entries,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	s.storeBody(r.Context(), key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(body)
}

// handleProductBySlug serves GET /api/v1/products/{slug}.
func (s *Server) handleProductBySlug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	slug := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	slug = strings.Trim(slug, "/")
	if slug == "" || strings.Contains(slug, "/") {
		s.writeError(w, http.StatusBadRequest, "missing or invalid product slug")
		return
	}

	product, err := s.repo.GetBySlug(r.Context(), slug)
	if err != nil {
		s.log.Error("product lookup failed", logging.Fields{"slug": slug, "error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if product == nil || !product.IsActive {
		s.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

func (s *Server) cachedBody(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache read failed", logging.Fields{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return []byte(val), true
}

// dropCached evicts a stale entry so the rebuilt response replaces it.
func (s *Server) dropCached(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("cache delete failed", logging.Fields{"key": key, "error": err.Error()})
	}
}

func (s *Server) storeBody(ctx context.Context, key string, body []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(body), s.cacheTTL); err != nil {
		s.log.Warn("cache write failed", logging.Fields{"key": key, "error": err.Error()})
	}
}

func rankingCacheKey(category string, limit int) string {
	if category == "" {
		category = "all"
	}
	return "ranking:" + category + ":" + strconv.Itoa(limit)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": message,
	})
}
