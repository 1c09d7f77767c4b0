package models

import "time"

// SpaceFile is one logical upload stored in a space. Many files may cite the
// same checksum; the physical bytes are stored once in the blob store.
type SpaceFile struct {
	ID               string     `json:"id" yaml:"id"`
	SpaceID          string     `json:"space_id" yaml:"space_id"`
	OriginalFilename string     `json:"original_filename" yaml:"original_filename"`
	FileSizeBytes    int64      `json:"file_size_bytes" yaml:"file_size_bytes"`
	MimeType         string     `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Checksum         string     `json:"checksum" yaml:"checksum"`
	DownloadCount    int64      `json:"download_count" yaml:"download_count"`
	UploadDate       time.Time  `json:"upload_date" yaml:"upload_date"`
	LastAccessed     *time.Time `json:"last_accessed,omitempty" yaml:"last_accessed,omitempty"`
}
