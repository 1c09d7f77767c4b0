package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Spaces collection.
	mux.HandleFunc("POST /v1/spaces", s.handleCreateSpace)
	mux.HandleFunc("GET /v1/spaces", s.handleListSpaces)

	// Single space.
	mux.HandleFunc("GET /v1/spaces/{id}", s.handleGetSpace)
	mux.HandleFunc("PATCH /v1/spaces/{id}", s.handleUpdateSpace)
	mux.HandleFunc("DELETE /v1/spaces/{id}", s.handleDeleteSpace)

	// Files within a space.
	mux.HandleFunc("GET /v1/spaces/{id}/files", s.handleListFiles)
	mux.HandleFunc("POST /v1/spaces/{id}/files", s.handleUploadFiles)

	// Single file.
	mux.HandleFunc("GET /v1/files/{id}", s.handleGetFile)
	mux.HandleFunc("DELETE /v1/files/{id}", s.handleDeleteFile)
	mux.HandleFunc("GET /v1/files/{id}/download", s.handleDownloadFile)

	return mux
}
