// Package cache memoizes file digests in an in-memory LRU keyed by file
// identity, so a path named several times in one run is read once.
package cache

import (
	"context"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/byte4ever/hashdigest/digest"
)

// DefaultSize is used when New is given a non-positive size.
var DefaultSize = 128

// key identifies one version of a file. A write that changes
// size or modification time yields a different key.
type key struct {
	path    string
	size    int64
	modTime int64
}

// Hasher hashes files through digest.HashFileContext and keeps
// the most recent results. It is safe for concurrent use.
type Hasher struct {
	data *lru.Cache[key, digest.Result]
}

// New creates a Hasher holding up to size results.
func New(size int) (*Hasher, error) {
	if size <= 0 {
		size = DefaultSize
	}

	data, err := lru.New[key, digest.Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating digest LRU: %w", err)
	}

	return &Hasher{data: data}, nil
}

// Hash returns the digests of the file at path, reusing a cached
// result when the file's size and modification time are
// unchanged.
func (ha *Hasher) Hash(
	ctx context.Context,
	path string,
) (digest.Result, error) {
	const errCtx = "hashing cached file"

	st, err := os.Stat(path)
	if err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	k := key{path: path, size: st.Size(), modTime: st.ModTime().UnixNano()}

	if res, ok := ha.data.Get(k); ok {
		return res, nil
	}

	res, err := digest.HashFileContext(ctx, path)
	if err != nil {
		return digest.Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	ha.data.Add(k, res)

	return res, nil
}

// Len reports the number of cached results.
func (ha *Hasher) Len() int {
	return ha.data.Len()
}

// Purge drops every cached result.
func (ha *Hasher) Purge() {
	ha.data.Purge()
}
