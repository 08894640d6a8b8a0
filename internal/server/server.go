package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pavel-fokin/fileshare/internal/config"
	"github.com/pavel-fokin/fileshare/internal/fileshare"
)

func New(cfg *config.Config, fileService *fileshare.Service) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("POST /v1/fileshare", auth(cfg.AdminToken, createRecord(fileService)))
	mux.HandleFunc("PUT /v1/fileshare/{id}/content", auth(cfg.AdminToken, uploadContent(fileService)))
	mux.HandleFunc("PUT /v1/fileshare/{id}/metadata", auth(cfg.AdminToken, describeRecord(fileService)))
	mux.HandleFunc("GET /v1/fileshare", listRecords(fileService))
	mux.HandleFunc("GET /v1/fileshare/{id}", getRecord(fileService))
	mux.HandleFunc("GET /{name}", downloadAsset(cfg.AdminToken, fileService))

	// Wrap the handler with logging middleware
	handler := loggingMiddleware(limitBody(mux, cfg.MaxSize))

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

type createResponse struct {
	FileID   uint64           `json:"fileId"`
	FileName string           `json:"fileName"`
	Status   fileshare.Status `json:"status"`
}

type describeRequest struct {
	Tags     fileshare.Tags `json:"tags"`
	Metadata []byte         `json:"metadata"`
}

func createRecord(fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fileshare.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		m, err := fileService.Create(&req)
		if err != nil {
			slog.Error("Create failed", "error", err, "name", req.Name)
			writeError(w, err, "Create failed")
			return
		}

		writeJSON(w, http.StatusCreated, createResponse{
			FileID:   m.File.ID,
			FileName: m.FileName,
			Status:   m.Status(),
		})
	}
}

func uploadContent(fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := fileID(w, r)
		if !ok {
			return
		}

		m, err := fileService.Upload(id, r.Body)
		if err != nil {
			slog.Error("Upload failed", "error", err, "file_id", id)
			writeError(w, err, "Upload failed")
			return
		}

		writeJSON(w, http.StatusOK, createResponse{
			FileID:   m.File.ID,
			FileName: m.FileName,
			Status:   m.Status(),
		})
	}
}

func describeRecord(fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := fileID(w, r)
		if !ok {
			return
		}

		var req describeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		result, err := fileService.Describe(id, req.Tags, req.Metadata)
		if err != nil {
			slog.Error("Describe failed", "error", err, "file_id", id)
			writeError(w, err, "Describe failed")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func listRecords(fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			results []*fileshare.Result
			err     error
		)

		if raw := r.URL.Query().Get("category"); raw != "" {
			category, convErr := strconv.ParseInt(raw, 10, 32)
			if convErr != nil {
				http.Error(w, "Invalid category", http.StatusBadRequest)
				return
			}
			results, err = fileService.Search(fileshare.CategoryFromInt(category))
		} else {
			results, err = fileService.ListResults()
		}
		if err != nil {
			slog.Error("List records failed", "error", err)
			writeError(w, err, "Failed to list records")
			return
		}

		if results == nil {
			results = []*fileshare.Result{}
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func getRecord(fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := fileID(w, r)
		if !ok {
			return
		}

		download := false
		if raw := r.URL.Query().Get("download"); raw != "" {
			var err error
			if download, err = strconv.ParseBool(raw); err != nil {
				http.Error(w, "Invalid download flag", http.StatusBadRequest)
				return
			}
		}

		result, err := fileService.Get(id, download)
		if err != nil {
			slog.Error("Get record failed", "error", err, "file_id", id)
			writeError(w, err, "Failed to get record")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func downloadAsset(token string, fileService *fileshare.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		slog.Info("Downloading asset", "name", name)

		m, content, err := fileService.Asset(name)
		if err != nil {
			slog.Error("Download failed", "error", err, "name", name)
			writeError(w, err, "Download failed")
			return
		}

		if m.Category == fileshare.CategoryScreenshotPrivate && !authorized(r, token) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}
}

func fileID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Invalid file id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, fileshare.ErrNotFound):
		http.Error(w, msg, http.StatusNotFound)
	case errors.Is(err, fileshare.ErrStatus):
		http.Error(w, msg, http.StatusConflict)
	case errors.Is(err, fileshare.ErrValidation):
		http.Error(w, msg, http.StatusUnprocessableEntity)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func auth(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

func authorized(r *http.Request, token string) bool {
	return r.Header.Get("Authorization") == "Bearer "+token
}

func limitBody(next http.Handler, maxSize int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		// Read the body up front so oversized uploads fail before any handler runs
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request entity too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests with structured logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
