package reference

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	// DefaultPrefix is prepended to every generated booking reference
	DefaultPrefix = "CR"

	// Length is the number of random characters after the prefix
	Length = 8

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var validRef = regexp.MustCompile(`^[A-Z0-9-]{6,32}$`)

var alphabetSize = big.NewInt(int64(len(alphabet)))

// Generate returns prefix followed by Length random characters from [A-Z0-9].
// An empty prefix falls back to DefaultPrefix.
func Generate(prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var sb strings.Builder
	sb.Grow(len(prefix) + Length)
	sb.WriteString(prefix)

	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// IsValid reports whether ref is an acceptable booking reference
func IsValid(ref string) bool {
	return validRef.MatchString(ref)
}

// Normalize trims and uppercases a reference typed by a customer
func Normalize(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}
