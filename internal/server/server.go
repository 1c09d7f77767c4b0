package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"spaces/internal/blobstore"
	"spaces/internal/store"
)

const (
	allowRemoteEnvKey      = "SPACES_ALLOW_REMOTE"
	readHeaderTimeout      = 5 * time.Second
	idleTimeout            = 60 * time.Second
	uploadConcurrencyLimit = 4
)

// Server wraps HTTP handlers for the spaces API.
type Server struct {
	addr           string
	dbPath         string
	store          *store.Store
	spaceService   *SpaceService
	fileService    *FileService
	logger         *slog.Logger
	uploadLimiter  chan struct{}
	maxUploadBytes int64
}

// New creates a new server instance.
func New(addr string, st *store.Store, blobs blobstore.BlobStore, dbPath string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:           addr,
		dbPath:         dbPath,
		store:          st,
		spaceService:   NewSpaceService(st),
		fileService:    NewFileService(st, st, blobs),
		logger:         logger,
		uploadLimiter:  make(chan struct{}, uploadConcurrencyLimit),
		maxUploadBytes: defaultUploadMaxBody,
	}
}

// SetMaxUploadBytes overrides the per-request upload body limit.
func (s *Server) SetMaxUploadBytes(limit int64) {
	if limit > 0 {
		s.maxUploadBytes = limit
	}
}

// ListenAndServe starts the HTTP server. Transfers stream, so the server
// carries no write timeout; slow-client protection comes from the read
// header timeout and the upload limiter.
func (s *Server) ListenAndServe() error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.withRequestLogging(s.routes()),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	return server.ListenAndServe()
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
