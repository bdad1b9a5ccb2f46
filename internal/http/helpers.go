package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// sanitizeInput trims whitespace and strips control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// requestIDFor reuses a well-formed inbound X-Request-ID or mints one, and
// stores it back on the request so later middleware sees the same value.
func requestIDFor(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(headerRequestID))
	if id == "" || len(id) > 64 || strings.ContainsAny(id, "\r\n") {
		id = generateRequestID()
		r.Header.Set(headerRequestID, id)
	}
	return id
}
