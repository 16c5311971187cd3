package stubserver

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, func(url, _ string) any {
		return map[string]string{"url": url}
	})
}

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	s.handleUpload(w, r, func(url, name string) any {
		return map[string]string{"url": url, "name": name}
	})
}

// handleUpload stores the "file" part under a fresh ULID name and responds
// with an absolute URL pointing back at this server.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, respond func(url, name string) any) {
	if s.uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("Uploads are not configured"))
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Missing file field"))
		return
	}
	defer func() { _ = file.Close() }()

	stored := newID() + strings.ToLower(filepath.Ext(header.Filename))
	if _, err := s.uploads.Write(stored, file); err != nil {
		s.logger.Error("store upload failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("Could not store file"))
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + r.Host + "/uploads/" + stored
	writeJSON(w, http.StatusOK, respond(url, header.Filename))
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	path, err := s.uploads.Path(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Not found"))
		return
	}
	http.ServeFile(w, r, path)
}
