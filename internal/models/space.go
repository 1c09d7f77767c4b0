package models

import "time"

// Space is a logical container for uploaded files.
type Space struct {
	ID                 string    `json:"id" yaml:"id"`
	Name               string    `json:"name" yaml:"name"`
	Description        string    `json:"description,omitempty" yaml:"description,omitempty"`
	IsPublic           bool      `json:"is_public" yaml:"is_public"`
	HasAccessCode      bool      `json:"has_access_code" yaml:"has_access_code"`
	TotalSizeUsedBytes int64     `json:"total_size_used_bytes" yaml:"total_size_used_bytes"`
	CreatedAt          time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" yaml:"updated_at"`

	// AccessCodeHash is the bcrypt hash of the space access code. It is
	// persisted but never serialized to API responses or exports.
	AccessCodeHash string `json:"-" yaml:"-"`
}
