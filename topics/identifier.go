package topics

import (
	"strconv"
)

const (
	// IdentifierPrefix starts every identifier produced by SanitizeAndChecksum.
	IdentifierPrefix = "ros2_"

	// MaxIdentifierLength bounds the length of every produced identifier.
	MaxIdentifierLength = 256

	checksumMultiplier = 31
	checksumModulus    = 1000000007
)

// SanitizeAndChecksum converts an operator-supplied topic key into an
// identifier that is safe to hand to the middleware: at most
// MaxIdentifierLength characters, drawn from [A-Za-z0-9_] after the fixed
// prefix, ending in a decimal checksum of the original key. The checksum is
// computed over the raw bytes of the input, not the sanitized form, so keys
// that sanitize to the same string still map to distinct identifiers. The
// function is total and deterministic; it never fails.
func SanitizeAndChecksum(input string) string {
	sanitized := make([]byte, len(input))
	for i := 0; i < len(input); i++ {
		b := input[i]
		if (b >= 'a' && b <= 'z') ||
			(b >= 'A' && b <= 'Z') ||
			(b >= '0' && b <= '9') ||
			b == '_' {
			sanitized[i] = b
		} else {
			sanitized[i] = '_'
		}
	}

	var sum uint64
	for i := 0; i < len(input); i++ {
		sum = (sum*checksumMultiplier + uint64(input[i])) % checksumModulus
	}
	checksum := strconv.FormatUint(sum, 10)

	// Truncate the sanitized segment, never the prefix or the checksum.
	budget := MaxIdentifierLength - len(IdentifierPrefix) - len(checksum)
	if budget < 0 {
		budget = 0
	}
	if len(sanitized) > budget {
		sanitized = sanitized[:budget]
	}

	return IdentifierPrefix + string(sanitized) + checksum
}
