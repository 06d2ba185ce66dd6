package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/log"
)

// DefaultIndexPath is the index document used when a request names none.
const DefaultIndexPath = "index/macros.xml"

// Server exposes the read operations of a layered file system over HTTP.
type Server struct {
	api cmd.API
	log *log.Logger
}

func New(api cmd.API, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Server{api: api, log: logger}
}

// LayerResponse is one layer in the /api/layers listing.
type LayerResponse struct {
	ID       string `json:"id"`
	Dir      string `json:"dir"`
	Pending  int    `json:"pending"`
	Parsed   int    `json:"parsed"`
	Files    int    `json:"files"`
	Failures string `json:"failures,omitempty"`
}

// DirEntryResponse is one name in a merged directory listing.
type DirEntryResponse struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
	Layer string `json:"layer"`
}

// Router builds the chi router with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/layers", s.ListLayers)
		r.Get("/dirs", s.ReadDirectory)
		r.Get("/dirs/*", s.ReadDirectory)
		r.Get("/files/*", s.OpenFile)
		r.Get("/documents/*", s.OpenDocument)
		r.Get("/index/{name}", s.OpenIndirected)
	})

	return r
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// ListLayers handles GET /api/layers
func (s *Server) ListLayers(w http.ResponseWriter, r *http.Request) {
	layers := s.api.Layers()

	resp := make([]LayerResponse, 0, len(layers))
	for _, layer := range layers {
		item := LayerResponse{
			ID:      layer.ID,
			Dir:     layer.Dir,
			Pending: layer.Pending,
			Parsed:  layer.Parsed,
			Files:   layer.Files,
		}
		if layer.Failures != nil {
			item.Failures = layer.Failures.Error()
		}
		resp = append(resp, item)
	}

	writeJSON(w, resp)
}

// ReadDirectory handles GET /api/dirs/*
func (s *Server) ReadDirectory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.api.ReadDirectory(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := make([]DirEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, DirEntryResponse{
			Name:  entry.Name,
			IsDir: entry.IsDir,
			Size:  entry.Size,
			Layer: entry.Layer,
		})
	}

	writeJSON(w, resp)
}

// OpenFile handles GET /api/files/*
func (s *Server) OpenFile(w http.ResponseWriter, r *http.Request) {
	content, err := s.api.OpenFile(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.Write(content)
}

// OpenDocument handles GET /api/documents/*
// Supports query param ?localized=true to merge pages by id.
func (s *Server) OpenDocument(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	open := s.api.OpenDocument
	if localized, _ := strconv.ParseBool(r.URL.Query().Get("localized")); localized {
		open = s.api.OpenLocalizedDocument
	}

	doc, err := open(r.Context(), path)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeDocument(w, doc)
}

// OpenIndirected handles GET /api/index/{name}
// Supports query param ?index=path to pick the index document.
func (s *Server) OpenIndirected(w http.ResponseWriter, r *http.Request) {
	indexPath := r.URL.Query().Get("index")
	if indexPath == "" {
		indexPath = DefaultIndexPath
	}

	doc, ok, err := s.api.OpenIndirected(r.Context(), indexPath, chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "name not found in index", http.StatusNotFound)
		return
	}

	s.writeDocument(w, doc)
}

func (s *Server) writeDocument(w http.ResponseWriter, doc *etree.Document) {
	doc.Indent(2)

	w.Header().Set("Content-Type", "application/xml")
	if _, err := doc.WriteTo(w); err != nil {
		s.log.Warn("Failed to write document: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed: %v", err)
	}

	http.Error(w, err.Error(), status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("%s %s %d %dB %s [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, vfs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
