// Package http provides the HTTP server: the browser page and its JSON API.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/linesearch-go/internal/domain/entities"
	"github.com/0xcro3dile/linesearch-go/internal/domain/usecases"
)

//go:embed static/*
var staticFS embed.FS

// DefaultMaxUploadBytes caps multipart uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 32 << 20

// Options configures a Server.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server is the HTTP server for the search UI and API.
type Server struct {
	session   *usecases.Session
	addr      string
	readTO    time.Duration
	maxUpload int64
	logger    *slog.Logger
}

// NewServer creates a new HTTP server around a session.
func NewServer(session *usecases.Session, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "http")
	}
	return &Server{
		session:   session,
		addr:      opts.Addr,
		readTO:    opts.ReadTimeout,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	staticContent, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	// UI
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// API
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/fetch", s.handleFetch)
	mux.HandleFunc("POST /api/github", s.handleGitHub)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTO,
		WriteTimeout: 2 * time.Minute, // covers a slow upstream fetch
	}

	s.logger.Info("linesearch server starting", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

type batchResponse struct {
	Batch batchSummary      `json:"batch"`
	State usecases.Snapshot `json:"state"`
}

type batchSummary struct {
	ID      string              `json:"id"`
	Kind    entities.SourceKind `json:"kind"`
	Source  string              `json:"source"`
	Records int                 `json:"records"`
}

type errorResponse struct {
	Error string            `json:"error"`
	State usecases.Snapshot `json:"state"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	mr, err := r.MultipartReader()
	if err != nil {
		s.badRequest(w, "multipart form required")
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			s.badRequest(w, "file required")
			return
		}
		if err != nil {
			s.badRequest(w, "invalid multipart body")
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		// The part streams from the request body, so an oversized upload
		// surfaces as a read failure inside ingestion.
		batch, err := s.session.LoadReader(r.Context(), part.FileName(), part)
		part.Close()
		s.respondLoad(w, batch, err)
		return
	}
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	target, ok := s.readField(w, r, "url")
	if !ok {
		return
	}
	batch, err := s.session.LoadURL(r.Context(), target)
	s.respondLoad(w, batch, err)
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	target, ok := s.readField(w, r, "url")
	if !ok {
		return
	}
	batch, err := s.session.LoadGitHub(r.Context(), target)
	s.respondLoad(w, batch, err)
}

type searchResponse struct {
	Applied bool              `json:"applied"`
	State   usecases.Snapshot `json:"state"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeField(w, r, "query")
	if !ok {
		return
	}
	_, applied, err := s.session.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", "query", query, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: usecases.MsgSearchFailed,
			State: s.session.Snapshot(),
		})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Applied: applied, State: s.session.Snapshot()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.session.Records(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(records), "records": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondLoad(w http.ResponseWriter, batch *entities.RecordBatch, err error) {
	if err != nil {
		s.logger.Warn("load failed", "error", err)
		snap := s.session.Snapshot()
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: snap.Error, State: snap})
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Batch: batchSummary{
			ID:      batch.ID,
			Kind:    batch.Kind,
			Source:  batch.Source,
			Records: batch.Len(),
		},
		State: s.session.Snapshot(),
	})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// readField decodes a required, non-blank field.
func (s *Server) readField(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v, ok := s.decodeField(w, r, name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		s.badRequest(w, name+" required")
		return "", false
	}
	return v, true
}

// decodeField reads one string field from a JSON body or a form.
func (s *Server) decodeField(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.badRequest(w, "invalid JSON body")
			return "", false
		}
		return body[name], true
	}
	if err := r.ParseForm(); err != nil {
		s.badRequest(w, "invalid form body")
		return "", false
	}
	return r.FormValue(name), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
