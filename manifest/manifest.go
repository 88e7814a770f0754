package manifest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/byte4ever/hashdigest/digest"
)

var (
	// ErrUnknownFormat is returned for a format name that is not
	// one of text, json, yaml or template.
	ErrUnknownFormat = errors.New("unknown manifest format")

	// ErrMalformedLine is returned for a checksum line that
	// cannot be parsed.
	ErrMalformedLine = errors.New("malformed checksum line")

	// ErrNoDigest is returned for a manifest entry that carries
	// no digest at all.
	ErrNoDigest = errors.New("entry has no digest")

	// ErrMissingPath is returned for a manifest entry without a
	// path.
	ErrMissingPath = errors.New("entry has no path")
)

// Format selects a manifest encoding.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatTemplate Format = "template"
)

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch fo := Format(strings.ToLower(strings.TrimSpace(name))); fo {
	case FormatText, FormatJSON, FormatYAML, FormatTemplate:
		return fo, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
	}
}

// Entry is one hashed file.
type Entry struct {
	Path   string
	Result digest.Result
}

// Expectation is what a manifest claims about one file. Digests
// maps algorithm names to lowercase hex; algorithms absent from
// the map are not checked. Size is -1 when unknown.
type Expectation struct {
	Path    string
	Size    int64
	Digests map[string]string
}

// Hasher produces the digests of a file.
type Hasher interface {
	Hash(ctx context.Context, path string) (digest.Result, error)
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func(ctx context.Context, path string) (digest.Result, error)

// Hash calls fn.
func (fn HasherFunc) Hash(
	ctx context.Context,
	path string,
) (digest.Result, error) {
	return fn(ctx, path)
}

// Status is the verdict for one checked file.
type Status int

// Check verdicts.
const (
	StatusOK Status = iota
	StatusMismatch
	StatusError
)

func (st Status) String() string {
	switch st {
	case StatusOK:
		return "OK"
	case StatusMismatch:
		return "FAILED"
	case StatusError:
		return "FAILED open or read"
	default:
		return fmt.Sprintf("Status(%d)", int(st))
	}
}

// CheckResult is the outcome of verifying one Expectation.
type CheckResult struct {
	Path   string
	Status Status
	// Mismatched lists the algorithms whose digest differed;
	// "size" is listed when only the size differs.
	Mismatched []string
	Err        error
}

// Check hashes every expected path with ha and compares the
// digests the expectation carries. Results follow the input
// order.
func Check(
	ctx context.Context,
	exps []Expectation,
	ha Hasher,
) []CheckResult {
	out := make([]CheckResult, 0, len(exps))

	for _, ex := range exps {
		out = append(out, checkOne(ctx, ex, ha))
	}

	return out
}

func checkOne(
	ctx context.Context,
	ex Expectation,
	ha Hasher,
) CheckResult {
	cr := CheckResult{Path: ex.Path}

	res, err := ha.Hash(ctx, ex.Path)
	if err != nil {
		cr.Status = StatusError
		cr.Err = err

		return cr
	}

	for _, alg := range digest.Algorithms() {
		want, ok := ex.Digests[alg.Name]
		if ok && want != res.Hex(alg) {
			cr.Mismatched = append(cr.Mismatched, alg.Name)
		}
	}

	if ex.Size >= 0 && ex.Size != res.Size() {
		cr.Mismatched = append(cr.Mismatched, "size")
	}

	if len(cr.Mismatched) > 0 {
		cr.Status = StatusMismatch
	}

	return cr
}

// Failed counts the results that are not OK.
func Failed(results []CheckResult) int {
	n := 0

	for _, cr := range results {
		if cr.Status != StatusOK {
			n++
		}
	}

	return n
}
