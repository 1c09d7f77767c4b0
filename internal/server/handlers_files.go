package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"spaces/internal/models"
)

const defaultUploadMaxBody = 100 << 20 // 100 MiB

func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.uploadLimiter, w, r, "upload") {
		return
	}
	defer s.releaseLimiter(s.uploadLimiter)

	spaceID, ok := s.spaceIDOrBadRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("multipart form data is required"), ErrCodeInvalidPart))
		return
	}

	// Parts stream one at a time; each payload goes straight from the wire
	// into the blob store spool without buffering the whole body.
	nextPart := func() (*IncomingPart, error) {
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			if err != nil {
				return nil, classifyMultipartError(err)
			}
			if part.FileName() == "" {
				// Plain form fields carry no payload.
				_ = part.Close()
				continue
			}
			return &IncomingPart{
				Filename:  part.FileName(),
				MediaType: strings.TrimSpace(part.Header.Get("Content-Type")),
				Reader:    part,
			}, nil
		}
	}

	files, err := s.fileService.Upload(r.Context(), spaceID, accessCodeFromRequest(r), nextPart)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, files)
}

func classifyMultipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(fmt.Errorf("malformed multipart payload: %v", err), ErrCodeInvalidPart)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	spaceID, ok := s.spaceIDOrBadRequest(w, r)
	if !ok {
		return
	}

	files, err := s.fileService.List(r.Context(), spaceID, accessCodeFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if files == nil {
		files = []models.SpaceFile{}
	}

	s.writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileIDOrBadRequest(w, r)
	if !ok {
		return
	}

	file, err := s.fileService.Get(r.Context(), id, accessCodeFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileIDOrBadRequest(w, r)
	if !ok {
		return
	}

	content, err := s.fileService.Download(r.Context(), id, accessCodeFromRequest(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer content.Reader.Close()

	w.Header().Set("Content-Type", content.MediaType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.Filename}))
	if content.SizeBytes >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(content.SizeBytes, 10))
	}

	if _, err := io.Copy(w, content.Reader); err != nil {
		// Headers are gone; all we can do is log the broken transfer.
		s.log().Warn("download stream interrupted", "file_id", id, "error", err)
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.fileIDOrBadRequest(w, r)
	if !ok {
		return
	}

	file, err := s.fileService.Delete(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, file)
}
