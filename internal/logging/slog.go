package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared by every package.
const (
	KeyService   = "service"
	KeyError     = "error"
	KeyAddresses = "address_hash"
)

// WithService tags logger with the component that owns it.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// Err is the error attribute. A nil error yields an empty group, which
// handlers drop, so Err(err) can be passed unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeAddress hashes a mailbox address. Case and surrounding space are
// ignored so the same attendee always hashes the same.
func AnonymizeAddress(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(address))
	return "addr:" + hex.EncodeToString(sum[:8])
}

// Addresses logs attendee addresses in anonymized form.
func Addresses(addresses []string) slog.Attr {
	hashed := make([]string, len(addresses))
	for i, a := range addresses {
		hashed[i] = AnonymizeAddress(a)
	}
	return slog.Any(KeyAddresses, hashed)
}

// SanitizeToken describes a token by length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
