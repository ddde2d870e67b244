package domain

import (
	"encoding/base64"
	"strconv"
)

const (
	// DefaultPageSize is used when a list request does not set a size.
	DefaultPageSize = 50
	// MaxPageSize caps admin list requests.
	MaxPageSize = 500
)

// PageRequest holds pagination parameters for admin list operations.
type PageRequest struct {
	Size      int
	PageToken string // opaque token (base64-encoded offset)
}

// Offset decodes the page token. Invalid tokens start from the beginning.
func (p PageRequest) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	decoded, err := base64.RawURLEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// Limit returns the effective page size, clamped to [1, MaxPageSize].
func (p PageRequest) Limit() int {
	switch {
	case p.Size <= 0:
		return DefaultPageSize
	case p.Size > MaxPageSize:
		return MaxPageSize
	default:
		return p.Size
	}
}

// NextPageToken returns the token for the page after (offset, limit), or ""
// when total rows are exhausted.
func NextPageToken(offset, limit int, total int64) string {
	next := offset + limit
	if int64(next) >= total {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(next)))
}
