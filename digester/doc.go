// Package digester calculates and verifies multi-digest sidecar files. A
// file's SHA-256, SHA-1 and MD5 digests and its size are stored as JSON in a
// companion .digest file alongside the original, so a later run can detect
// whether the content changed.
package digester
