package digest

import (
	"crypto/md5"  //nolint:gosec // md5 is a checksum here, not a security boundary
	"crypto/sha1" //nolint:gosec // sha1 is a checksum here, not a security boundary
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"strings"
)

// ErrUnknownAlgorithm is returned by LookupAlgorithm for names
// outside the supported set.
var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

// Algorithm is one incremental hash capability: New yields a
// state at its zero-input value, Write absorbs and Sum
// finalizes.
type Algorithm struct {
	Name string
	Size int
	New  func() hash.Hash
}

// HexLen is the length of the lowercase hex encoding of a
// digest produced by alg.
func (alg Algorithm) HexLen() int {
	return alg.Size * 2
}

func (alg Algorithm) String() string {
	return alg.Name
}

var (
	// SHA256 is FIPS 180-4 SHA-256.
	SHA256 = Algorithm{Name: "sha256", Size: sha256.Size, New: sha256.New}
	// SHA1 is FIPS 180-4 SHA-1.
	SHA1 = Algorithm{Name: "sha1", Size: sha1.Size, New: sha1.New}
	// MD5 is RFC 1321 MD5.
	MD5 = Algorithm{Name: "md5", Size: md5.Size, New: md5.New}
)

// Accumulator slots; the order matches Algorithms.
const (
	idxSHA256 = iota
	idxSHA1
	idxMD5
	numAlgorithms
)

// Algorithms returns the supported algorithms in canonical
// order.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA1, MD5}
}

// LookupAlgorithm finds an algorithm by name. Matching is
// case-insensitive and ignores a dash, so "SHA-256" resolves
// to SHA256.
func LookupAlgorithm(name string) (Algorithm, error) {
	const errCtx = "looking up algorithm"

	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")

	for _, alg := range Algorithms() {
		if alg.Name == key {
			return alg, nil
		}
	}

	return Algorithm{}, fmt.Errorf(
		"%s: %q: %w", errCtx, name, ErrUnknownAlgorithm,
	)
}

func index(alg Algorithm) int {
	switch alg.Name {
	case SHA256.Name:
		return idxSHA256
	case SHA1.Name:
		return idxSHA1
	case MD5.Name:
		return idxMD5
	default:
		return -1
	}
}

// ErrInvalidDigest is returned when a stored digest is not the
// lowercase hex encoding expected for its algorithm.
var ErrInvalidDigest = errors.New("invalid digest")

// ValidateHex checks that s is a lowercase hex digest of the
// length alg produces.
func ValidateHex(alg Algorithm, s string) error {
	if len(s) != alg.HexLen() {
		return fmt.Errorf(
			"%s digest %q has length %d, want %d: %w",
			alg.Name, s, len(s), alg.HexLen(), ErrInvalidDigest,
		)
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf(
				"%s digest %q is not lowercase hex: %w",
				alg.Name, s, ErrInvalidDigest,
			)
		}
	}

	return nil
}
