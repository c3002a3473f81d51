package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// HashIP returns the hex sha256 of a client address, or "" when the address is unknown.
// Raw addresses are never stored.
func HashIP(ip string) string {
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
