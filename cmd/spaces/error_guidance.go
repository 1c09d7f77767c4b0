package main

import (
	"context"
	"errors"
	"net"

	"spaces/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: the space is protected; pass its code with --access-code.")
		case "conflict":
			lines = append(lines, "hint: a space must be empty before removal; delete its files first.")
		case "resource_exhausted":
			lines = append(lines, "hint: retry shortly or reduce concurrent uploads.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify SPACES_API_URL points to a spaces server.")
		}
		if apiErr.Status >= 500 {
			hint := "hint: server returned an internal error; check server logs for details."
			if apiErr.ErrorID != "" {
				hint = "hint: server returned an internal error; search server logs for error_id " + apiErr.ErrorID + "."
			}
			lines = append(lines, hint)
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase SPACES_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a spaces server is running at SPACES_API_URL.",
			"hint: start a local server manually with: spaces srv",
			"hint: you can increase SPACES_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
