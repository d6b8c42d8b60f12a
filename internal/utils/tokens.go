package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf16"
)

// DefaultInviteTTLDays is the invite lifetime used when none is configured.
const DefaultInviteTTLDays = 7

// Relationship id prefixes per product area.
const (
	PrefixCC         = "cc_"
	PrefixCommission = "cm_"
	PrefixBigGote    = "bg_"
)

// randReader is swapped in tests to simulate entropy failures.
var randReader io.Reader = rand.Reader

// SecureRandomToken returns byteLen cryptographically random bytes encoded
// as URL-safe base64 without padding. There is no weaker fallback: if the
// entropy source fails the error is returned.
func SecureRandomToken(byteLen int) (string, error) {
	if byteLen <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", byteLen)
	}
	b := make([]byte, byteLen)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

const (
	fnvOffset32 uint32 = 0x811c9dc5
	fnvPrime32  uint32 = 0x01000193
)

// DeterministicRelationshipID joins parts with "|" and hashes the UTF-16
// code units of the result with 32-bit FNV-1a, rendered as prefix followed
// by eight lowercase hex digits.
//
// The id space is only 32 bits wide, so unrelated tuples can collide;
// callers must check the participants of an existing relationship.
func DeterministicRelationshipID(prefix string, parts ...string) string {
	h := fnvOffset32
	for _, u := range utf16.Encode([]rune(strings.Join(parts, "|"))) {
		h ^= uint32(u)
		h *= fnvPrime32
	}
	return fmt.Sprintf("%s%08x", prefix, h)
}

// DefaultInviteExpiry returns now plus days days; a non-positive value falls
// back to DefaultInviteTTLDays.
func DefaultInviteExpiry(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultInviteTTLDays
	}
	return now.Add(time.Duration(days) * 24 * time.Hour)
}
