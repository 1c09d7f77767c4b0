package server

import (
	"net/http"

	"spaces/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StoreInfo(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		DBPath:           s.dbPath,
		SchemaVersion:    info.SchemaVersion,
		SpaceCount:       info.SpaceCount,
		FileCount:        info.FileCount,
		BlobCount:        info.BlobCount,
		TotalStoredBytes: info.TotalStoredBytes,
	}

	s.writeJSON(w, http.StatusOK, resp)
}
