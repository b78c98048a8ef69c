package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many invoices any cursor query can request.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or the CLI.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last invoice of a page. Ledger ids only grow,
// so newest-first pages continue with ids strictly below it.
type Cursor struct {
	Timestamp string
	ID        int64
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor builds an opaque cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%d", cursor.Timestamp, cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. A blank
// value yields a nil cursor.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	idx := strings.LastIndexByte(string(decoded), '|')
	if idx < 0 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	id, err := strconv.ParseInt(string(decoded[idx+1:]), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid cursor id")
	}
	return &Cursor{
		Timestamp: string(decoded[:idx]),
		ID:        id,
	}, nil
}
