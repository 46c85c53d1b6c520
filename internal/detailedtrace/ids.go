package detailedtrace

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	requestIDPrefix = "req-"
	spanIDPrefix    = "span-"
)

// NewRequestID returns a fresh random request identifier.
func NewRequestID() string {
	return randomID(requestIDPrefix)
}

// NewSpanID returns a fresh random span identifier.
func NewSpanID() string {
	return randomID(spanIDPrefix)
}

// randomID renders 128 bits from the secure random source as lowercase hex.
// crypto/rand.Reader is safe for concurrent use.
func randomID(prefix string) string {
	var b [16]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(fmt.Sprintf("detailedtrace: reading random source: %v", err))
	}
	return prefix + hex.EncodeToString(b[:])
}
