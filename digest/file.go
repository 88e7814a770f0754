package digest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// DefaultBufferSize is the chunk size used when streaming files
// into an accumulator.
const DefaultBufferSize = 32 * 1024

// Outcome carries the result of an asynchronous hash.
type Outcome struct {
	Result Result
	Err    error
}

// FileOutcome is the Outcome of one path handed to HashFiles.
type FileOutcome struct {
	Path string
	Outcome
}

// HashReader copies r into a fresh accumulator until EOF and
// returns its digests.
func HashReader(r io.Reader) (Result, error) {
	const errCtx = "hashing reader"

	ac := New()

	if _, err := io.CopyBuffer(
		ac, r, make([]byte, DefaultBufferSize),
	); err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return ac.Sum(), nil
}

// HashReaderContext is HashReader with ctx checked before every
// read. A cancelled context aborts the copy and no result is
// returned. Cancellation is only observed between reads: a Read
// already blocked in r (a FIFO, a stalled network mount) is not
// interrupted and must return before ctx is seen.
func HashReaderContext(
	ctx context.Context,
	r io.Reader,
) (Result, error) {
	const errCtx = "hashing reader"

	ac := New()
	buf := make([]byte, DefaultBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%s: %w", errCtx, err)
		}

		n, err := r.Read(buf)
		if n > 0 {
			_, _ = ac.Write(buf[:n]) //nolint:errcheck // never fails
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return ac.Sum(), nil
}

// HashFile streams the file at path through an accumulator on
// the calling goroutine.
func HashFile(path string) (result Result, retErr error) {
	const errCtx = "hashing file"

	slog.Debug("hashing", "path", path)

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			result = Result{}
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	res, err := HashReader(bufio.NewReaderSize(fi, DefaultBufferSize))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return res, nil
}

// HashFileContext streams the file at path through an
// accumulator, giving up at the next read boundary once ctx is
// done. A read already in progress is not interrupted, so a file
// that blocks on read delays the cancellation until the read
// returns. The file is closed on every return path.
func HashFileContext(
	ctx context.Context,
	path string,
) (result Result, retErr error) {
	const errCtx = "hashing file"

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Debug("hashing", "path", path)

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			result = Result{}
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	res, err := HashReaderContext(ctx, fi)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}

	return res, nil
}

// HashFileAsync hashes the file at path on its own goroutine.
// Exactly one Outcome is sent on the returned channel, which is
// then closed. The channel is buffered, so an abandoned receive
// does not leak the goroutine.
func HashFileAsync(ctx context.Context, path string) <-chan Outcome {
	ch := make(chan Outcome, 1)

	go func() {
		defer close(ch)

		res, err := HashFileContext(ctx, path)
		ch <- Outcome{Result: res, Err: err}
	}()

	return ch
}

// HashFiles hashes each path with its own accumulator using up
// to workers goroutines. Outcomes are returned in input order.
// A non-positive workers value means one.
func HashFiles(
	ctx context.Context,
	paths []string,
	workers int,
) []FileOutcome {
	if workers <= 0 {
		workers = 1
	}

	if workers > len(paths) {
		workers = len(paths)
	}

	out := make([]FileOutcome, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				res, err := HashFileContext(ctx, paths[i])
				out[i] = FileOutcome{
					Path:    paths[i],
					Outcome: Outcome{Result: res, Err: err},
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}

	close(jobs)
	wg.Wait()

	return out
}
