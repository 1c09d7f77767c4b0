package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument   = 1000
	ErrCodeInvalidJSON       = 1001
	ErrCodeRequestTooLarge   = 1002
	ErrCodeInvalidID         = 1004
	ErrCodeInvalidPart       = 1005
	ErrCodeInvalidAccessCode = 1006
	ErrCodeMissingRequired   = 1009

	// Domain state (2xxx)
	ErrCodeSpaceNotFound = 2001
	ErrCodeFileNotFound  = 2002
	ErrCodeConflict      = 2102
	ErrCodeSpaceNotEmpty = 2103

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal         = 4001
	ErrCodeStoreFailure     = 4002
	ErrCodeBlobStoreFailure = 4003
	ErrCodeContentMissing   = 4004
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodeSpaceNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
