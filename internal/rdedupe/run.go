package rdedupe

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blackopsrepl/rdedupe/internal/rdedupe"

// Options configures a duplicate scan.
type Options struct {
	// Path is the directory to scan.
	Path string
	// Pattern keeps only paths containing it (empty = all).
	Pattern string
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Workers is the hashing pool size (0=number of CPUs).
	Workers int
	// Algorithm is the content digest.
	Algorithm Algorithm
	// FailFast aborts on the first file that cannot be hashed or sized.
	FailFast bool
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives diagnostics, may be nil.
	Logger *slog.Logger
}

// Result is the outcome of a scan.
type Result struct {
	// Files are the paths that matched the pattern.
	Files []string `json:"files"`
	// Groups are the duplicate groups found among Files.
	Groups []DuplicateGroup `json:"groups"`
	// Report holds the per-file and per-group statistics.
	Report *Report `json:"report"`
	// Algorithm is the digest used.
	Algorithm Algorithm `json:"algorithm"`
	// Elapsed is the total time taken.
	Elapsed time.Duration `json:"elapsed"`
}

// Failures returns the per-file failures of both the hashing and the
// sizing phase.
func (r *Result) Failures() []*IOError {
	if r.Report == nil {
		return nil
	}

	return r.Report.Failures
}

// Run walks opt.Path, keeps the files matching opt.Pattern, hashes them in
// parallel and groups identical contents. Progress updates for the hashing
// phase are sent to progressHook if provided.
//
// A traversal failure aborts the run. Per-file failures are collected in
// the result unless opt.FailFast is set, in which case the first one is
// returned.
func Run(ctx context.Context, opt Options, progressHook ProgressFunc) (result *Result, err error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	tracer := otel.Tracer(tracerName)

	ctx, span := tracer.Start(ctx, "rdedupe.Run", trace.WithAttributes(
		attribute.String("rdedupe.path", opt.Path),
		attribute.String("rdedupe.pattern", opt.Pattern),
		attribute.String("rdedupe.algorithm", string(opt.Algorithm)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.End()
	}()

	start := time.Now()

	_, walkSpan := tracer.Start(ctx, "walk")
	all, err := Walk(ctx, WalkOptions{
		Root:     opt.Path,
		Excludes: opt.Excludes,
		Depth:    opt.Depth,
		MinSize:  opt.MinSize,
		Logger:   log,
	})
	walkSpan.End()

	if err != nil {
		return nil, err
	}

	files := Filter(all, opt.Pattern)
	span.SetAttributes(attribute.Int("rdedupe.files", len(files)))
	log.Debug("filtered", "walked", len(all), "matched", len(files), "pattern", opt.Pattern)

	hashCtx, hashSpan := tracer.Start(ctx, "hash")
	pipeline := &Pipeline{
		Hasher:           NewHasher(opt.Algorithm),
		Workers:          opt.Workers,
		FailFast:         opt.FailFast,
		ProgressInterval: opt.ProgressInterval,
		OnProgress:       progressHook,
		Logger:           log,
	}
	index, hashFailures, err := pipeline.Run(hashCtx, files)
	hashSpan.SetAttributes(
		attribute.Int("rdedupe.digests", index.Len()),
		attribute.Int("rdedupe.failures", len(hashFailures)),
	)
	hashSpan.End()

	if err != nil {
		return nil, err
	}

	groups := index.Duplicates()

	_, statsSpan := tracer.Start(ctx, "aggregate")
	report, err := Aggregate(files, groups, opt.FailFast)
	statsSpan.End()

	if err != nil {
		return nil, err
	}

	report.Failures = mergeFailures(hashFailures, report.Failures)

	for _, failure := range report.Failures {
		if failure.Op == "stat" {
			log.Warn("skipping file", "op", failure.Op, "path", failure.Path, "err", failure.Err)
		}
	}

	result = &Result{
		Files:     files,
		Groups:    groups,
		Report:    report,
		Algorithm: pipeline.Hasher.Algorithm(),
		Elapsed:   time.Since(start),
	}

	span.SetAttributes(attribute.Int("rdedupe.groups", len(groups)))

	return result, nil
}

// mergeFailures combines hashing and sizing failures, listing each path
// once. A file that failed to hash usually fails to stat as well; the
// hashing failure is kept.
func mergeFailures(hashed, sized []*IOError) []*IOError {
	if len(sized) == 0 {
		return hashed
	}

	seen := make(map[string]struct{}, len(hashed))

	merged := make([]*IOError, 0, len(hashed)+len(sized))
	for _, failure := range hashed {
		seen[failure.Path] = struct{}{}
		merged = append(merged, failure)
	}

	for _, failure := range sized {
		if _, ok := seen[failure.Path]; ok {
			continue
		}

		merged = append(merged, failure)
	}

	return merged
}
