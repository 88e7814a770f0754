package digest

import (
	"encoding/hex"
	"fmt"
)

// Result is an immutable snapshot of the three hex digests
// taken by Accumulator.Sum.
type Result struct {
	hex  [numAlgorithms]string
	size int64
}

// SHA256 returns the 64 character lowercase hex SHA-256 digest.
func (r Result) SHA256() string { return r.hex[idxSHA256] }

// SHA1 returns the 40 character lowercase hex SHA-1 digest.
func (r Result) SHA1() string { return r.hex[idxSHA1] }

// MD5 returns the 32 character lowercase hex MD5 digest.
func (r Result) MD5() string { return r.hex[idxMD5] }

// Size is the number of bytes the digests cover.
func (r Result) Size() int64 { return r.size }

// Hex returns the digest for alg, or "" if alg is not one of
// the supported algorithms.
func (r Result) Hex(alg Algorithm) string {
	i := index(alg)
	if i < 0 {
		return ""
	}

	return r.hex[i]
}

// Raw returns a fresh copy of the binary digest for alg, or nil
// if alg is not supported.
func (r Result) Raw(alg Algorithm) []byte {
	h := r.Hex(alg)
	if h == "" {
		return nil
	}

	raw, err := hex.DecodeString(h)
	if err != nil {
		return nil
	}

	return raw
}

// IsZero reports whether r was never produced by Sum.
func (r Result) IsZero() bool {
	return r.hex == [numAlgorithms]string{}
}

// Equal reports whether both results carry the same digests
// and size.
func (r Result) Equal(other Result) bool {
	return r == other
}

func (r Result) String() string {
	return fmt.Sprintf(
		"sha256=%s sha1=%s md5=%s",
		r.SHA256(), r.SHA1(), r.MD5(),
	)
}

// NewResult builds a Result from stored hex digests, for
// instance ones read back from a sidecar file. Each digest must
// be lowercase hex of the algorithm's length.
func NewResult(size int64, sha256Hex, sha1Hex, md5Hex string) (Result, error) {
	const errCtx = "building result"

	res := Result{size: size}

	for i, pair := range []struct {
		alg Algorithm
		val string
	}{
		{SHA256, sha256Hex},
		{SHA1, sha1Hex},
		{MD5, md5Hex},
	} {
		if err := ValidateHex(pair.alg, pair.val); err != nil {
			return Result{}, fmt.Errorf("%s: %w", errCtx, err)
		}

		res.hex[i] = pair.val
	}

	if size < 0 {
		return Result{}, fmt.Errorf(
			"%s: negative size %d: %w", errCtx, size, ErrInvalidDigest,
		)
	}

	return res, nil
}
