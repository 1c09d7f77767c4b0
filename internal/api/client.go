package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"spaces/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "SPACES_HTTP_TIMEOUT"
	accessCodeHeader   = "X-Access-Code"
)

// Client is a simple HTTP client for the spaces API. Transfers use a
// separate client without a global timeout so large payloads are not cut
// off mid-stream; context cancellation still applies.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		stream:  &http.Client{},
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// GetInfo returns server and catalog state.
func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", "", nil, &resp)
	return resp, err
}

// CreateSpace creates a new space.
func (c *Client) CreateSpace(ctx context.Context, req SpaceCreateRequest) (models.Space, error) {
	var resp models.Space
	err := c.do(ctx, http.MethodPost, "/v1/spaces", "", req, &resp)
	return resp, err
}

// ListSpaces lists all spaces, newest first.
func (c *Client) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var resp []models.Space
	err := c.do(ctx, http.MethodGet, "/v1/spaces", "", nil, &resp)
	return resp, err
}

// GetSpace returns one space by id.
func (c *Client) GetSpace(ctx context.Context, id string) (models.Space, error) {
	var resp models.Space
	err := c.do(ctx, http.MethodGet, "/v1/spaces/"+url.PathEscape(id), "", nil, &resp)
	return resp, err
}

// UpdateSpace applies a partial update to a space.
func (c *Client) UpdateSpace(ctx context.Context, id string, req SpaceUpdateRequest) (models.Space, error) {
	var resp models.Space
	err := c.do(ctx, http.MethodPatch, "/v1/spaces/"+url.PathEscape(id), "", req, &resp)
	return resp, err
}

// DeleteSpace deletes an empty space and returns the removed record.
func (c *Client) DeleteSpace(ctx context.Context, id string) (models.Space, error) {
	var resp models.Space
	err := c.do(ctx, http.MethodDelete, "/v1/spaces/"+url.PathEscape(id), "", nil, &resp)
	return resp, err
}

// ListFiles lists the file records of one space, newest first.
func (c *Client) ListFiles(ctx context.Context, spaceID, accessCode string) ([]models.SpaceFile, error) {
	var resp []models.SpaceFile
	err := c.do(ctx, http.MethodGet, "/v1/spaces/"+url.PathEscape(spaceID)+"/files", accessCode, nil, &resp)
	return resp, err
}

// GetFile returns one file record by id.
func (c *Client) GetFile(ctx context.Context, id, accessCode string) (models.SpaceFile, error) {
	var resp models.SpaceFile
	err := c.do(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id), accessCode, nil, &resp)
	return resp, err
}

// DeleteFile deletes one file and returns the removed record.
func (c *Client) DeleteFile(ctx context.Context, id string) (models.SpaceFile, error) {
	var resp models.SpaceFile
	err := c.do(ctx, http.MethodDelete, "/v1/files/"+url.PathEscape(id), "", nil, &resp)
	return resp, err
}

// UploadPart is one file payload in a multipart upload.
type UploadPart struct {
	Filename  string
	MediaType string
	Reader    io.Reader
}

// UploadFiles streams parts to a space and returns the created records.
func (c *Client) UploadFiles(ctx context.Context, spaceID, accessCode string, parts []UploadPart) ([]models.SpaceFile, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one part is required")
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		for _, part := range parts {
			w, err := createFormFile(mw, part.Filename, part.MediaType)
			if err != nil {
				pw.CloseWithError(err)
				return
			}
			if _, err := io.Copy(w, part.Reader); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/spaces/"+url.PathEscape(spaceID)+"/files", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accessCode != "" {
		req.Header.Set(accessCodeHeader, accessCode)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var files []models.SpaceFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, err
	}
	return files, nil
}

// DownloadInfo carries transfer metadata for one download.
type DownloadInfo struct {
	Filename  string
	MediaType string
	SizeBytes int64
}

// DownloadFile opens a streaming download for one file. The caller must
// close the returned reader.
func (c *Client) DownloadFile(ctx context.Context, id, accessCode string) (io.ReadCloser, DownloadInfo, error) {
	var info DownloadInfo

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/files/"+url.PathEscape(id)+"/download", nil)
	if err != nil {
		return nil, info, err
	}
	if accessCode != "" {
		req.Header.Set(accessCodeHeader, accessCode)
	}

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, info, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, info, decodeError(resp)
	}

	info.MediaType = resp.Header.Get("Content-Type")
	info.SizeBytes = resp.ContentLength
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		info.Filename = params["filename"]
	}
	return resp.Body, info, nil
}

func (c *Client) do(ctx context.Context, method, path, accessCode string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessCode != "" {
		req.Header.Set(accessCodeHeader, accessCode)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var wire ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil {
		apiErr.Code = wire.Code
		apiErr.ErrorCode = wire.ErrorCode
		apiErr.ErrorID = wire.ErrorID
		apiErr.Message = wire.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func createFormFile(mw *multipart.Writer, filename, mediaType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(filename)))
	if mediaType != "" {
		h.Set("Content-Type", mediaType)
	}
	return mw.CreatePart(h)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func httpTimeoutFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if raw == "" {
		return defaultHTTPTimeout
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return defaultHTTPTimeout
	}
	return parsed
}
