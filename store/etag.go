package store

import (
	"fmt"
	"strconv"
)

// ETag is an opaque optimistic-concurrency token. Two ETags are equal only if
// they were produced by the same write. The zero ETag is never issued.
type ETag struct {
	seq uint64
}

// IsZero reports whether e is the zero ETag.
func (e ETag) IsZero() bool {
	return e.seq == 0
}

// String returns the textual form of e, as reported in change records.
func (e ETag) String() string {
	if e.seq == 0 {
		return ""
	}
	return strconv.FormatUint(e.seq, 10)
}

// ParseETag returns the ETag whose String form is s.
// The empty string parses to the zero ETag.
func ParseETag(s string) (ETag, error) {
	if s == "" {
		return ETag{}, nil
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil || seq == 0 {
		return ETag{}, fmt.Errorf("%w: %q", ErrInvalidETag, s)
	}
	return ETag{seq: seq}, nil
}

// etagSource issues ETags. Callers must hold the store lock.
type etagSource struct {
	last uint64
}

func (s *etagSource) next() ETag {
	s.last++
	return ETag{seq: s.last}
}
