package api

// ErrorResponse is a generic JSON error wrapper. ErrorID correlates the
// response with server-side logs.
type ErrorResponse struct {
	ErrorID   string `json:"error_id,omitempty"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SpaceCreateRequest creates a new space.
type SpaceCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    *bool  `json:"is_public,omitempty"`
	AccessCode  string `json:"access_code,omitempty"`
}

// SpaceUpdateRequest partially updates a space. Absent fields keep their
// current values.
type SpaceUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
	AccessCode  *string `json:"access_code,omitempty"`
}

// InfoResponse reports server and catalog state.
type InfoResponse struct {
	DBPath           string `json:"db_path"`
	SchemaVersion    int    `json:"schema_version"`
	SpaceCount       int64  `json:"space_count"`
	FileCount        int64  `json:"file_count"`
	BlobCount        int64  `json:"blob_count"`
	TotalStoredBytes int64  `json:"total_stored_bytes"`
}
