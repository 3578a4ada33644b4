package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
)

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("POST /save_page", s.handleSavePage)
}

// handleHealth returns a fixed body while the listener is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// handleSavePage stores one base64 page. Every failure is reported as a 500.
func (s *Server) handleSavePage(w http.ResponseWriter, r *http.Request) {
	var payload data.PagePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		s.logger.Warn("invalid save_page body", "error", err)
		writeError(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	page, err := s.store.Save(payload)
	if err != nil {
		s.logger.Error("failed to save page", "manga", payload.Manga, "chapter", payload.Chapter, "error", err)
		writeError(w, err.Error())
		return
	}

	s.logger.Debug("page stored", "path", page.Path, "format", page.Format, "sniffed", page.Sniffed)
	writeJSON(w, http.StatusOK, data.SaveResponse{Status: "success"})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, data.SaveResponse{Status: "error", Message: msg})
}
