package manifest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/valyala/fasttemplate"

	"github.com/byte4ever/hashdigest/digest"
	"github.com/byte4ever/hashdigest/multiformat"
)

// DefaultTemplate reproduces the text format for sha256.
const DefaultTemplate = "{sha256}  {path}"

// document is the JSON and YAML layout of one entry.
type document struct {
	Path   string `json:"path"             yaml:"path"`
	Size   *int64 `json:"size,omitempty"   yaml:"size,omitempty"`
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	SHA1   string `json:"sha1,omitempty"   yaml:"sha1,omitempty"`
	MD5    string `json:"md5,omitempty"    yaml:"md5,omitempty"`
}

func toDocument(en Entry) document {
	size := en.Result.Size()

	return document{
		Path:   en.Path,
		Size:   &size,
		SHA256: en.Result.SHA256(),
		SHA1:   en.Result.SHA1(),
		MD5:    en.Result.MD5(),
	}
}

// Options tunes Write.
type Options struct {
	// Algorithm selects the digest of the text format. Zero
	// means SHA-256.
	Algorithm digest.Algorithm
	// Template is the per-entry template of the template
	// format. Empty means DefaultTemplate.
	Template string
}

// Write renders entries to w in the given format.
func Write(
	w io.Writer,
	entries []Entry,
	fo Format,
	opts Options,
) error {
	const errCtx = "writing manifest"

	var err error

	switch fo {
	case FormatText:
		alg := opts.Algorithm
		if alg.Name == "" {
			alg = digest.SHA256
		}

		err = WriteSums(w, entries, alg)
	case FormatJSON:
		err = WriteJSON(w, entries)
	case FormatYAML:
		err = WriteYAML(w, entries)
	case FormatTemplate:
		tpl := opts.Template
		if tpl == "" {
			tpl = DefaultTemplate
		}

		err = WriteTemplate(w, entries, tpl)
	default:
		err = fmt.Errorf("%q: %w", fo, ErrUnknownFormat)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// WriteSums writes "<hex>  <path>" lines for alg, the layout
// read by sha256sum -c and friends.
func WriteSums(
	w io.Writer,
	entries []Entry,
	alg digest.Algorithm,
) error {
	const errCtx = "writing sums"

	var sb strings.Builder

	for _, en := range entries {
		hx := en.Result.Hex(alg)
		if hx == "" {
			return fmt.Errorf(
				"%s: %s: %w", errCtx, alg.Name, digest.ErrUnknownAlgorithm,
			)
		}

		sb.WriteString(hx)
		sb.WriteString("  ")
		sb.WriteString(en.Path)
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	const errCtx = "writing json"

	docs := make([]document, 0, len(entries))
	for _, en := range entries {
		docs = append(docs, toDocument(en))
	}

	by, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	by = append(by, '\n')

	if _, err := w.Write(by); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// WriteYAML writes one YAML document per entry, separated by
// "---" lines.
func WriteYAML(w io.Writer, entries []Entry) error {
	const errCtx = "writing yaml"

	for i, en := range entries {
		buf, err := yaml.Marshal(toDocument(en))
		if err != nil {
			return fmt.Errorf(
				"%s: marshaling %s: %w", errCtx, en.Path, err,
			)
		}

		if i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return fmt.Errorf(
					"%s: writing separator: %w", errCtx, err,
				)
			}
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// WriteTemplate expands tpl once per entry and writes each
// expansion on its own line. Recognized placeholders are
// {path}, {size}, {sha256}, {sha1}, {md5}, {multihash} (base32
// sha2-256 multihash) and {cid}. Unknown placeholders are
// preserved as-is.
func WriteTemplate(
	w io.Writer,
	entries []Entry,
	tpl string,
) error {
	const errCtx = "writing template"

	var sb strings.Builder

	for _, en := range entries {
		vars, err := templateVars(en)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", errCtx, en.Path, err)
		}

		sb.WriteString(
			fasttemplate.ExecuteStringStd(tpl, "{", "}", vars),
		)
		sb.WriteByte('\n')
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func templateVars(en Entry) (map[string]interface{}, error) {
	mh, err := multiformat.Encode(
		en.Result, digest.SHA256, multiformat.DefaultBase,
	)
	if err != nil {
		return nil, err
	}

	id, err := multiformat.CID(en.Result)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"path":      en.Path,
		"size":      strconv.FormatInt(en.Result.Size(), 10),
		"sha256":    en.Result.SHA256(),
		"sha1":      en.Result.SHA1(),
		"md5":       en.Result.MD5(),
		"multihash": mh,
		"cid":       id.String(),
	}, nil
}
