package manifest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/byte4ever/hashdigest/digest"
)

// MaxLineLength bounds a single checksum line read by
// ParseSums.
const MaxLineLength = 16 * 1024 * 1024

// bsdLine matches the tagged "SHA256 (path) = hex" layout.
var bsdLine = regexp.MustCompile(`^([A-Za-z0-9-]+) \((.+)\) = ([0-9A-Fa-f]+)$`)

// Parse reads a manifest in the given format. alg is the
// algorithm of untagged text lines and is ignored otherwise.
func Parse(
	r io.Reader,
	fo Format,
	alg digest.Algorithm,
) ([]Expectation, error) {
	const errCtx = "parsing manifest"

	var (
		exps []Expectation
		err  error
	)

	switch fo {
	case FormatText:
		exps, err = ParseSums(r, alg)
	case FormatJSON:
		exps, err = ParseJSON(r)
	case FormatYAML:
		exps, err = ParseYAML(r)
	default:
		err = fmt.Errorf("%q: %w", fo, ErrUnknownFormat)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return exps, nil
}

// ParseSums reads checksum lines. Untagged "<hex>  <path>" and
// "<hex> *<path>" lines are taken as alg digests; tagged
// "ALG (path) = hex" lines name their own algorithm. Blank lines
// and lines starting with '#' are skipped.
func ParseSums(
	r io.Reader,
	alg digest.Algorithm,
) ([]Expectation, error) {
	const errCtx = "parsing sums"

	var exps []Expectation

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	lineNo := 0

	for sc.Scan() {
		lineNo++

		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ex, err := parseSumLine(line, alg)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: line %d: %w", errCtx, lineNo, err,
			)
		}

		exps = append(exps, ex)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return exps, nil
}

func parseSumLine(
	line string,
	alg digest.Algorithm,
) (Expectation, error) {
	var path, hx string

	if m := bsdLine.FindStringSubmatch(line); m != nil {
		tagged, err := digest.LookupAlgorithm(m[1])
		if err != nil {
			return Expectation{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
		}

		alg, path, hx = tagged, m[2], m[3]
	} else {
		idx := strings.IndexByte(line, ' ')
		if idx <= 0 || idx == len(line)-1 {
			return Expectation{}, fmt.Errorf(
				"%w: %q", ErrMalformedLine, line,
			)
		}

		hx, path = line[:idx], line[idx+1:]

		if path[0] == ' ' || path[0] == '*' {
			path = path[1:]
		}
	}

	if path == "" {
		return Expectation{}, fmt.Errorf(
			"%w: %q: %w", ErrMalformedLine, line, ErrMissingPath,
		)
	}

	hx = strings.ToLower(hx)

	if err := digest.ValidateHex(alg, hx); err != nil {
		return Expectation{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}

	return Expectation{
		Path:    path,
		Size:    -1,
		Digests: map[string]string{alg.Name: hx},
	}, nil
}

// ParseJSON reads a JSON array as written by WriteJSON.
func ParseJSON(r io.Reader) ([]Expectation, error) {
	const errCtx = "parsing json"

	var docs []document

	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	exps := make([]Expectation, 0, len(docs))

	for i, doc := range docs {
		ex, err := fromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: entry %d: %w", errCtx, i, err,
			)
		}

		exps = append(exps, ex)
	}

	return exps, nil
}

// ParseYAML reads multi-document YAML as written by WriteYAML.
// Empty documents are skipped.
func ParseYAML(r io.Reader) ([]Expectation, error) {
	const errCtx = "parsing yaml"

	decoder := yaml.NewDecoder(r)

	var exps []Expectation

	for i := 0; ; i++ {
		var doc *document

		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf(
				"%s: decoding document %d: %w", errCtx, i, err,
			)
		}

		if doc == nil {
			continue
		}

		ex, err := fromDocument(*doc)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: document %d: %w", errCtx, i, err,
			)
		}

		exps = append(exps, ex)
	}

	return exps, nil
}

func fromDocument(doc document) (Expectation, error) {
	if doc.Path == "" {
		return Expectation{}, ErrMissingPath
	}

	ex := Expectation{
		Path:    doc.Path,
		Size:    -1,
		Digests: make(map[string]string),
	}

	if doc.Size != nil {
		ex.Size = *doc.Size
	}

	for _, pair := range []struct {
		alg digest.Algorithm
		val string
	}{
		{digest.SHA256, doc.SHA256},
		{digest.SHA1, doc.SHA1},
		{digest.MD5, doc.MD5},
	} {
		if pair.val == "" {
			continue
		}

		hx := strings.ToLower(pair.val)

		if err := digest.ValidateHex(pair.alg, hx); err != nil {
			return Expectation{}, fmt.Errorf("%s: %w", doc.Path, err)
		}

		ex.Digests[pair.alg.Name] = hx
	}

	if len(ex.Digests) == 0 {
		return Expectation{}, fmt.Errorf("%s: %w", doc.Path, ErrNoDigest)
	}

	return ex, nil
}
