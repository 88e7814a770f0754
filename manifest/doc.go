// Package manifest writes and reads checksum manifests for sets of files.
//
// Manifests can be rendered as coreutils-compatible "<hex>  <path>" lines,
// a JSON array, multi-document YAML, or one line per file expanded from a
// {placeholder} template. The text, JSON and YAML forms parse back into
// Expectations, which Check verifies against the files on disk.
package manifest
