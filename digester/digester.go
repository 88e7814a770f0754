package digester

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/hashdigest/digest"
)

// Suffix is appended to a path to name its sidecar file.
const Suffix = ".digest"

// record is the sidecar JSON layout.
type record struct {
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
	SHA1   string `json:"sha1"`
	MD5    string `json:"md5"`
}

// SidecarPath returns the sidecar file name for path.
func SidecarPath(path string) string {
	return path + Suffix
}

// CalculateDigest computes the digests of the file at path.
func CalculateDigest(path string) (digest.Result, error) {
	const errCtx = "calculating digest"

	res, err := digest.HashFile(path)
	if err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return res, nil
}

// Marshal encodes res in the sidecar JSON layout.
func Marshal(res digest.Result) ([]byte, error) {
	const errCtx = "marshaling digest"

	by, err := json.Marshal(record{
		Size:   res.Size(),
		SHA256: res.SHA256(),
		SHA1:   res.SHA1(),
		MD5:    res.MD5(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return by, nil
}

// Unmarshal decodes sidecar JSON and validates every digest.
func Unmarshal(by []byte) (digest.Result, error) {
	const errCtx = "unmarshaling digest"

	var rec record

	if err := json.Unmarshal(by, &rec); err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	res, err := digest.NewResult(rec.Size, rec.SHA256, rec.SHA1, rec.MD5)
	if err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return res, nil
}

// GetDigest reads the stored digests from the sidecar file of
// path. found is false with no error if the sidecar does not
// exist.
func GetDigest(path string) (res digest.Result, found bool, err error) {
	const errCtx = "getting stored digest"

	by, err := os.ReadFile(SidecarPath(path)) //nolint:gosec // path is caller-provided by design
	if errors.Is(err, os.ErrNotExist) {
		return digest.Result{}, false, nil
	}

	if err != nil {
		return digest.Result{}, false, fmt.Errorf("%s: %w", errCtx, err)
	}

	res, err = Unmarshal(by)
	if err != nil {
		return digest.Result{}, false, fmt.Errorf(
			"%s: %s: %w", errCtx, SidecarPath(path), err,
		)
	}

	return res, true, nil
}

// VerifyDigest compares the calculated digests of the file
// against its stored sidecar. A missing sidecar verifies as
// false.
func VerifyDigest(path string) (bool, error) {
	const errCtx = "verifying digest"

	stored, found, err := GetDigest(path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if !found {
		return false, nil
	}

	calc, err := CalculateDigest(path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	return calc.Equal(stored), nil
}

// WriteDigest stores res in the sidecar file of path.
func WriteDigest(path string, res digest.Result) error {
	const errCtx = "writing digest"

	by, err := Marshal(res)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(SidecarPath(path), by, 0o600); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// SaveDigest calculates the digests of a file and writes them
// to its sidecar file. The computed result is returned.
func SaveDigest(path string) (digest.Result, error) {
	const errCtx = "saving digest"

	res, err := CalculateDigest(path)
	if err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := WriteDigest(path, res); err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return res, nil
}
