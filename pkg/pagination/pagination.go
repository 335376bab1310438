package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when a list request carries no limit.
	DefaultLimit = 25
	// MaxLimit is the hard ceiling for any single page.
	MaxLimit = 100

	cursorSep = "|"
)

// Params carries the limit and opaque cursor of a list request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page. Ordering is
// (created_at DESC, id DESC), so both fields are needed to break ties.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit].
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one extra row so repositories can tell
// whether another page exists without a count query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor renders a cursor as an opaque URL-safe token.
func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSep + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor reverses EncodeCursor. An empty value yields a nil cursor,
// meaning the first page.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		// Older clients may hold cursors minted with standard padding.
		raw, err = base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
	}

	ts, idPart, ok := strings.Cut(string(raw), cursorSep)
	if !ok {
		return nil, fmt.Errorf("malformed cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
