package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"spaces/internal/models"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeSpaceList(spaces []models.Space) error {
	for _, space := range spaces {
		if err := writePlain("%s\n", formatSpaceLine(space)); err != nil {
			return err
		}
	}
	return nil
}

func writeSpaceDetail(space models.Space) error {
	lines := []string{
		fmt.Sprintf("id: %s", space.ID),
		fmt.Sprintf("name: %s", space.Name),
	}
	if space.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", space.Description))
	}
	lines = append(lines,
		fmt.Sprintf("public: %t", space.IsPublic),
		fmt.Sprintf("access_code: %s", accessCodeState(space)),
		fmt.Sprintf("used: %s", formatBytes(space.TotalSizeUsedBytes)),
		fmt.Sprintf("created_at: %s", formatTime(space.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(space.UpdatedAt)),
	)
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeFileList(files []models.SpaceFile) error {
	for _, file := range files {
		if err := writePlain("%s\n", formatFileLine(file)); err != nil {
			return err
		}
	}
	return nil
}

func writeFileDetail(file models.SpaceFile) error {
	lines := []string{
		fmt.Sprintf("id: %s", file.ID),
		fmt.Sprintf("space_id: %s", file.SpaceID),
		fmt.Sprintf("filename: %s", file.OriginalFilename),
		fmt.Sprintf("size: %s", formatBytes(file.FileSizeBytes)),
	}
	if file.MimeType != "" {
		lines = append(lines, fmt.Sprintf("mime_type: %s", file.MimeType))
	}
	lines = append(lines,
		fmt.Sprintf("checksum: %s", file.Checksum),
		fmt.Sprintf("downloads: %d", file.DownloadCount),
		fmt.Sprintf("uploaded_at: %s", formatTime(file.UploadDate)),
	)
	if file.LastAccessed != nil {
		lines = append(lines, fmt.Sprintf("last_accessed: %s", formatTime(*file.LastAccessed)))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatSpaceLine(space models.Space) string {
	marker := "○"
	if space.HasAccessCode && !space.IsPublic {
		marker = "●"
	}
	return fmt.Sprintf("%s %s [%s] - %s", marker, space.ID, formatBytes(space.TotalSizeUsedBytes), space.Name)
}

func formatFileLine(file models.SpaceFile) string {
	return fmt.Sprintf("○ %s [%s] - %s", file.ID, formatBytes(file.FileSizeBytes), file.OriginalFilename)
}

func accessCodeState(space models.Space) string {
	if space.HasAccessCode {
		return "set"
	}
	return "none"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
