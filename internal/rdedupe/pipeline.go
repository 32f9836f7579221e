package rdedupe

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Progress is a snapshot of hashing progress.
type Progress struct {
	// Done is the number of files finished, hashed or failed.
	Done int64 `json:"done"`
	// Failed is the number of files that could not be hashed.
	Failed int64 `json:"failed"`
	// Total is the number of files submitted.
	Total int64 `json:"total"`
	// Elapsed is the time since hashing started.
	Elapsed time.Duration `json:"elapsed"`
}

// ProgressFunc observes hashing progress. It is advisory only and is
// always called from a single goroutine.
type ProgressFunc func(Progress)

// DigestIndex maps each digest to the files that produced it.
type DigestIndex struct {
	buckets map[Digest][]string
	files   int
}

// NewDigestIndex returns an empty index.
func NewDigestIndex() *DigestIndex {
	return &DigestIndex{buckets: make(map[Digest][]string)}
}

// Add appends path to the bucket for digest.
func (x *DigestIndex) Add(digest Digest, path string) {
	x.buckets[digest] = append(x.buckets[digest], path)
	x.files++
}

// Lookup returns the files recorded for digest.
func (x *DigestIndex) Lookup(digest Digest) []string {
	return x.buckets[digest]
}

// Len returns the number of distinct digests.
func (x *DigestIndex) Len() int {
	return len(x.buckets)
}

// Files returns the number of files recorded across all digests.
func (x *DigestIndex) Files() int {
	return x.files
}

// merge moves every entry of other into x.
func (x *DigestIndex) merge(other *DigestIndex) {
	for digest, paths := range other.buckets {
		x.buckets[digest] = append(x.buckets[digest], paths...)
	}

	x.files += other.files
}

// Pipeline hashes files concurrently on a fixed pool of workers.
type Pipeline struct {
	// Hasher computes each file's digest.
	Hasher Hasher
	// Workers is the pool size, runtime.NumCPU() when <= 0.
	Workers int
	// FailFast stops the pipeline at the first file that cannot be hashed.
	FailFast bool
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// OnProgress receives progress snapshots, may be nil.
	OnProgress ProgressFunc
	// Logger receives per-file diagnostics, may be nil.
	Logger *slog.Logger
}

// counters are the progress state shared with the workers.
type counters struct {
	start  time.Time
	total  int64
	done   atomic.Int64
	failed atomic.Int64
}

func (c *counters) snapshot() Progress {
	return Progress{
		Done:    c.done.Load(),
		Failed:  c.failed.Load(),
		Total:   c.total,
		Elapsed: time.Since(c.start),
	}
}

// worker holds the state owned by one hashing goroutine.
type worker struct {
	index    *DigestIndex
	failures []*IOError
}

// Run hashes every path and returns the resulting index together with the
// files that failed. Each path lands in exactly one bucket or in the
// failure list, never both.
//
// With FailFast set, the first failure cancels the remaining work and is
// returned as the error. If ctx is cancelled, the partial index is returned
// along with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, paths []string) (*DigestIndex, []*IOError, error) {
	if len(paths) == 0 {
		return NewDigestIndex(), nil, nil
	}

	log := p.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	workers = min(workers, len(paths))

	c := &counters{start: time.Now(), total: int64(len(paths))}
	stop := startProgressReporter(ctx, c, p.OnProgress, p.ProgressInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// The group limit equals the number of slots, so a started goroutine
	// always finds a free one.
	states := make([]*worker, workers)
	slots := make(chan *worker, workers)

	for i := range states {
		states[i] = &worker{index: NewDigestIndex()}
		slots <- states[i]
	}

	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			state := <-slots
			defer func() { slots <- state }()

			digest, err := p.Hasher.Sum(path)
			if err != nil {
				var ioErr *IOError
				if !errors.As(err, &ioErr) {
					ioErr = &IOError{Op: "hash", Path: path, Err: err}
				}

				state.failures = append(state.failures, ioErr)
				c.failed.Add(1)
				c.done.Add(1)
				log.Warn("skipping file", "op", ioErr.Op, "path", ioErr.Path, "err", ioErr.Err)

				if p.FailFast {
					return ioErr
				}

				return nil
			}

			state.index.Add(digest, path)
			c.done.Add(1)

			return nil
		})
	}

	firstErr := g.Wait()
	stop()

	index := NewDigestIndex()

	var failures []*IOError

	for _, state := range states {
		index.merge(state.index)
		failures = append(failures, state.failures...)
	}

	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Path < failures[j].Path
	})

	if p.OnProgress != nil {
		p.OnProgress(c.snapshot())
	}

	log.Debug("hashing finished",
		"files", index.Files(),
		"digests", index.Len(),
		"failed", len(failures),
		"workers", workers,
		"elapsed", time.Since(c.start),
	)

	if firstErr != nil {
		return index, failures, firstErr
	}

	if err := ctx.Err(); err != nil {
		return index, failures, err
	}

	return index, failures, nil
}

// startProgressReporter invokes hook on each tick until the returned stop
// function is called. stop waits for the reporter goroutine to exit, so no
// tick can race with a later direct call to hook.
func startProgressReporter(ctx context.Context, c *counters, hook ProgressFunc, interval time.Duration) func() {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)
	quit := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot())
			case <-quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		close(quit)
		<-exited
	}
}
