package item

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rolodex-hq/rolodex/internal/domain"
)

// cursor marks the last returned row in the (created_at desc, id desc) order.
type cursor struct {
	createdAt time.Time
	id        string
}

// encodeCursor produces an opaque page token. The timestamp keeps full
// nanosecond precision so the cursor comparator and the listing sort
// agree on the order of rows created close together.
func encodeCursor(c cursor) string {
	raw := fmt.Sprintf("%d|%s", c.createdAt.UnixNano(), c.id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor parses a page token. Malformed tokens are an input error,
// never a storage error.
func decodeCursor(token string) (cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursor{}, fmt.Errorf("decode page token: %w", domain.ErrInvalidCursor)
	}

	nanos, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return cursor{}, fmt.Errorf("malformed page token: %w", domain.ErrInvalidCursor)
	}

	ns, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return cursor{}, fmt.Errorf("malformed page token timestamp: %w", domain.ErrInvalidCursor)
	}

	return cursor{createdAt: time.Unix(0, ns).UTC(), id: id}, nil
}

// before reports whether the row identified by (createdAt, id) sorts
// strictly after the cursor position in descending order, meaning it
// belongs on a later page.
func (c cursor) before(createdAt time.Time, id string) bool {
	cn, rn := c.createdAt.UnixNano(), createdAt.UnixNano()
	if rn != cn {
		return rn < cn
	}
	return id < c.id
}
