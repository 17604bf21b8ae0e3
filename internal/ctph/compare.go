package ctph

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

var (
	// ErrInvalidSignature is returned for strings not of the form
	// "<blocksize>:<sig1>:<sig2>".
	ErrInvalidSignature = errors.New("ctph: invalid signature")
	// ErrBlockSizeMismatch is returned when two signatures were computed at
	// different block sizes and cannot be compared.
	ErrBlockSizeMismatch = errors.New("ctph: block size mismatch")
)

var signaturePattern = regexp.MustCompile(`^\d+:[0-9a-zA-Z+/]+:[0-9a-zA-Z+/]+$`)

// Compare returns the edit distance between two signatures: the smaller of
// the Levenshtein distances of their first and second parts. Lower means
// more similar.
func Compare(a, b string) (int, error) {
	if !signaturePattern.MatchString(a) {
		return -1, fmt.Errorf("%w: first argument", ErrInvalidSignature)
	}
	if !signaturePattern.MatchString(b) {
		return -1, fmt.Errorf("%w: second argument", ErrInvalidSignature)
	}

	pa := strings.Split(a, ":")
	pb := strings.Split(b, ":")
	if pa[0] != pb[0] {
		return -1, ErrBlockSizeMismatch
	}

	first := levenshtein.ComputeDistance(pa[1], pb[1])
	second := levenshtein.ComputeDistance(pa[2], pb[2])
	return min(first, second), nil
}
