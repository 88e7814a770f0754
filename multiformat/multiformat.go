package multiformat

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/byte4ever/hashdigest/digest"
)

// DefaultBase is the multibase used by Encode callers that do
// not care.
const DefaultBase = multibase.Base32

var (
	// ErrUnsupportedCode is returned when a multihash carries a
	// function code outside sha2-256, sha1 and md5.
	ErrUnsupportedCode = errors.New("unsupported multihash code")

	// ErrEmptyResult is returned for a zero digest.Result.
	ErrEmptyResult = errors.New("empty digest result")
)

var codes = map[string]uint64{
	digest.SHA256.Name: multihash.SHA2_256,
	digest.SHA1.Name:   multihash.SHA1,
	digest.MD5.Name:    multihash.MD5,
}

// Code returns the multihash function code for alg.
func Code(alg digest.Algorithm) (uint64, error) {
	code, ok := codes[alg.Name]
	if !ok {
		return 0, fmt.Errorf("%s: %w", alg.Name, ErrUnsupportedCode)
	}

	return code, nil
}

// Algorithm maps a multihash function code back to its
// algorithm.
func Algorithm(code uint64) (digest.Algorithm, error) {
	for _, alg := range digest.Algorithms() {
		if codes[alg.Name] == code {
			return alg, nil
		}
	}

	return digest.Algorithm{}, fmt.Errorf(
		"code 0x%x: %w", code, ErrUnsupportedCode,
	)
}

// Multihash wraps the alg digest of res in a multihash.
func Multihash(
	res digest.Result,
	alg digest.Algorithm,
) (multihash.Multihash, error) {
	const errCtx = "encoding multihash"

	if res.IsZero() {
		return nil, fmt.Errorf("%s: %w", errCtx, ErrEmptyResult)
	}

	code, err := Code(alg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	mh, err := multihash.Encode(res.Raw(alg), code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return mh, nil
}

// Encode returns the alg multihash of res as a multibase string
// in the given base.
func Encode(
	res digest.Result,
	alg digest.Algorithm,
	base multibase.Encoding,
) (string, error) {
	const errCtx = "encoding multibase"

	mh, err := Multihash(res, alg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	str, err := multibase.Encode(base, mh)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return str, nil
}

// Decode parses a multibase multihash string produced by
// Encode and returns its algorithm and lowercase hex digest.
func Decode(str string) (digest.Algorithm, string, error) {
	const errCtx = "decoding multibase"

	_, by, err := multibase.Decode(str)
	if err != nil {
		return digest.Algorithm{}, "", fmt.Errorf("%s: %w", errCtx, err)
	}

	dec, err := multihash.Decode(by)
	if err != nil {
		return digest.Algorithm{}, "", fmt.Errorf("%s: %w", errCtx, err)
	}

	alg, err := Algorithm(dec.Code)
	if err != nil {
		return digest.Algorithm{}, "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return alg, fmt.Sprintf("%x", dec.Digest), nil
}

// CID returns the CIDv1 of the hashed bytes under the raw codec,
// addressed by their sha2-256 multihash.
func CID(res digest.Result) (cid.Cid, error) {
	const errCtx = "building cid"

	mh, err := Multihash(res, digest.SHA256)
	if err != nil {
		return cid.Undef, fmt.Errorf("%s: %w", errCtx, err)
	}

	return cid.NewCidV1(cid.Raw, mh), nil
}
