package server

import (
	"regexp"
	"strings"
)

const maxSpaceNameLength = 200

var (
	spaceIDPattern = regexp.MustCompile(`^sp-[0-9a-z]{6}$`)
	fileIDPattern  = regexp.MustCompile(`^fl-[0-9a-z]{6}$`)
)

func validateSpaceID(id string) bool {
	return spaceIDPattern.MatchString(id)
}

func validateFileID(id string) bool {
	return fileIDPattern.MatchString(id)
}

func validateSpaceName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxSpaceNameLength
}
