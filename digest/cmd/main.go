// Package main provides the hashdigest CLI that prints the
// SHA-256, SHA-1 and MD5 digests of the named files, verifies
// checksum manifests, and maintains .digest sidecar files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/byte4ever/hashdigest/cache"
	"github.com/byte4ever/hashdigest/digest"
	"github.com/byte4ever/hashdigest/digester"
	"github.com/byte4ever/hashdigest/manifest"
)

var errChecksFailed = errors.New("checks failed")

type config struct {
	format        manifest.Format
	algorithm     digest.Algorithm
	template      string
	output        string
	check         string
	saveSidecar   bool
	verifySidecar bool
	jobs          int
	timeout       time.Duration
	async         bool
	logLevel      slog.Level
	paths         []string
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	const errCtx = "parsing flags"

	var (
		cfg       config
		format    string
		algorithm string
		logLevel  string
	)

	fs := flag.NewFlagSet("hashdigest", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(
		&format, "format", string(manifest.FormatText),
		"output or manifest format: text, json, yaml or template",
	)

	fs.StringVar(
		&algorithm, "algorithm", digest.SHA256.Name,
		"digest of the text format: sha256, sha1 or md5",
	)

	fs.StringVar(
		&cfg.template, "template", manifest.DefaultTemplate,
		"per-file template of the template format",
	)

	fs.StringVar(
		&cfg.output, "output", "",
		"output file path (default: stdout)",
	)

	fs.StringVar(
		&cfg.check, "check", "",
		"verify the files listed in this manifest",
	)

	fs.BoolVar(
		&cfg.saveSidecar, "save-sidecar", false,
		"also write a .digest sidecar next to each file",
	)

	fs.BoolVar(
		&cfg.verifySidecar, "verify-sidecar", false,
		"verify each file against its .digest sidecar",
	)

	fs.IntVar(
		&cfg.jobs, "jobs", runtime.NumCPU(),
		"number of files hashed concurrently",
	)

	fs.DurationVar(
		&cfg.timeout, "timeout", 0,
		"overall deadline, 0 for none",
	)

	fs.BoolVar(
		&cfg.async, "async", false,
		"hash each file through the asynchronous entry point",
	)

	fs.StringVar(
		&logLevel, "log-level", "warn",
		"log level: debug, info, warn or error",
	)

	if err := fs.Parse(args); err != nil {
		return config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	fo, err := manifest.ParseFormat(format)
	if err != nil {
		return config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg.format = fo

	cfg.algorithm, err = digest.LookupAlgorithm(algorithm)
	if err != nil {
		return config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := cfg.logLevel.UnmarshalText(
		[]byte(logLevel),
	); err != nil {
		return config{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	cfg.paths = fs.Args()

	switch {
	case cfg.check != "" && cfg.verifySidecar:
		return config{}, fmt.Errorf(
			"%s: only one of --check or --verify-sidecar"+
				" may be specified",
			errCtx,
		)
	case cfg.check != "" && cfg.saveSidecar:
		return config{}, fmt.Errorf(
			"%s: only one of --check or --save-sidecar"+
				" may be specified",
			errCtx,
		)
	case cfg.check != "" && len(cfg.paths) > 0:
		return config{}, fmt.Errorf(
			"%s: --check reads its files from the manifest,"+
				" got %d file arguments",
			errCtx, len(cfg.paths),
		)
	case cfg.check != "" && cfg.format == manifest.FormatTemplate:
		return config{}, fmt.Errorf(
			"%s: --check does not read the template format",
			errCtx,
		)
	case cfg.check == "" && len(cfg.paths) == 0:
		return config{}, fmt.Errorf(
			"%s: no files given", errCtx,
		)
	}

	return cfg, nil
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
) error {
	const errCtx = "hashdigest"

	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		stderr, &slog.HandlerOptions{Level: cfg.logLevel},
	)))

	if cfg.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	out := stdout

	if cfg.output != "" {
		fo, err := os.Create(cfg.output) //nolint:gosec // path from CLI flag
		if err != nil {
			return fmt.Errorf(
				"%s: creating output: %w", errCtx, err,
			)
		}

		defer fo.Close() //nolint:errcheck // best-effort close

		out = fo
	}

	switch {
	case cfg.check != "":
		err = runCheck(ctx, cfg, out)
	case cfg.verifySidecar:
		err = runVerifySidecar(cfg, out)
	default:
		err = runHash(ctx, cfg, out)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func hashAll(ctx context.Context, cfg config) []digest.FileOutcome {
	if !cfg.async {
		return digest.HashFiles(ctx, cfg.paths, cfg.jobs)
	}

	workers := max(cfg.jobs, 1)
	outs := make([]digest.FileOutcome, len(cfg.paths))
	idx := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range idx {
				outs[i] = digest.FileOutcome{
					Path:    cfg.paths[i],
					Outcome: <-digest.HashFileAsync(ctx, cfg.paths[i]),
				}
			}
		}()
	}

	for i := range cfg.paths {
		idx <- i
	}

	close(idx)
	wg.Wait()

	return outs
}

func runHash(ctx context.Context, cfg config, out io.Writer) error {
	const errCtx = "hashing"

	start := time.Now()

	var (
		entries []manifest.Entry
		errs    []error
	)

	for _, fo := range hashAll(ctx, cfg) {
		if fo.Err != nil {
			slog.Error("hash failed", "path", fo.Path, "error", fo.Err)
			errs = append(errs, fo.Err)

			continue
		}

		slog.Debug(
			"hashed",
			"path", fo.Path,
			"size", fo.Result.Size(),
			"sha256", fo.Result.SHA256(),
		)

		if cfg.saveSidecar {
			if err := digester.WriteDigest(fo.Path, fo.Result); err != nil {
				errs = append(errs, err)

				continue
			}
		}

		entries = append(entries, manifest.Entry{
			Path: fo.Path, Result: fo.Result,
		})
	}

	if err := manifest.Write(out, entries, cfg.format, manifest.Options{
		Algorithm: cfg.algorithm,
		Template:  cfg.template,
	}); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"done",
		"files", len(entries),
		"failed", len(errs),
		"elapsed", time.Since(start),
	)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

func runCheck(ctx context.Context, cfg config, out io.Writer) error {
	const errCtx = "checking manifest"

	fi, err := os.Open(cfg.check) //nolint:gosec // path from CLI flag
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	defer fi.Close() //nolint:errcheck // best-effort close

	exps, err := manifest.Parse(fi, cfg.format, cfg.algorithm)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	ha, err := cache.New(len(exps))
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	results := manifest.Check(ctx, exps, ha)

	var sb strings.Builder

	for _, cr := range results {
		fmt.Fprintf(&sb, "%s: %s\n", cr.Path, cr.Status)

		if cr.Err != nil {
			slog.Error("check failed", "path", cr.Path, "error", cr.Err)
		}

		if len(cr.Mismatched) > 0 {
			slog.Warn(
				"digest mismatch",
				"path", cr.Path,
				"fields", strings.Join(cr.Mismatched, ","),
			)
		}
	}

	if _, err := io.WriteString(out, sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if n := manifest.Failed(results); n > 0 {
		return fmt.Errorf(
			"%s: %d of %d: %w", errCtx, n, len(results), errChecksFailed,
		)
	}

	return nil
}

func runVerifySidecar(cfg config, out io.Writer) error {
	const errCtx = "verifying sidecars"

	var (
		sb     strings.Builder
		failed int
	)

	for _, pa := range cfg.paths {
		ok, err := digester.VerifyDigest(pa)

		switch {
		case err != nil:
			slog.Error("verify failed", "path", pa, "error", err)
			fmt.Fprintf(&sb, "%s: %s\n", pa, manifest.StatusError)
			failed++
		case !ok:
			fmt.Fprintf(&sb, "%s: %s\n", pa, manifest.StatusMismatch)
			failed++
		default:
			fmt.Fprintf(&sb, "%s: %s\n", pa, manifest.StatusOK)
		}
	}

	if _, err := io.WriteString(out, sb.String()); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if failed > 0 {
		return fmt.Errorf(
			"%s: %d of %d: %w", errCtx, failed, len(cfg.paths), errChecksFailed,
		)
	}

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	stop()

	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
