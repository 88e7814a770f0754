// Package multiformat renders digest results as self-describing multihash,
// multibase and CID strings so they can be exchanged with content-addressed
// tooling.
package multiformat
