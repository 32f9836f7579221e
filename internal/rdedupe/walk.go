package rdedupe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

var errNotDirectory = errors.New("not a directory")

// WalkOptions configures file enumeration.
type WalkOptions struct {
	// Root is the directory to walk.
	Root string
	// Excludes contains regex patterns matched against slash-separated paths.
	Excludes []string
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// MinSize is the minimum file size in bytes.
	MinSize int64
	// Workers is the number of walker goroutines (0=fastwalk default).
	Workers int
	// Logger receives debug output, may be nil.
	Logger *slog.Logger
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
// Patterns see slash-separated paths with any leading "./" removed.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := strings.TrimPrefix(filepath.ToSlash(path), "./")

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// pathCollector gathers paths from concurrent fastwalk callbacks using a mutex.
type pathCollector struct {
	mu    sync.Mutex
	paths []string
}

func (c *pathCollector) add(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paths = append(c.paths, path)
}

// Walk returns every regular file under opt.Root, sorted. Symlinks are not
// followed. Any entry that cannot be read aborts the walk with a
// *TraversalError.
func Walk(ctx context.Context, opt WalkOptions) ([]string, error) {
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if opt.Root == "" {
		opt.Root = "."
	}

	opt.Root = filepath.Clean(opt.Root)

	if info, err := os.Stat(opt.Root); err != nil {
		return nil, &TraversalError{Root: opt.Root, Path: opt.Root, Err: err}
	} else if !info.IsDir() {
		return nil, &TraversalError{Root: opt.Root, Path: opt.Root, Err: errNotDirectory}
	}

	excludeRegexes := make([]*regexp.Regexp, 0, len(opt.Excludes))

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		excludeRegexes = append(excludeRegexes, re)
	}

	conf := &fastwalk.Config{
		Follow:     false,
		NumWorkers: opt.Workers,
	}

	collector := &pathCollector{}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, opt.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &TraversalError{Root: opt.Root, Path: path, Err: err}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if opt.Depth > 0 && calculateDepth(path, opt.Root) > opt.Depth {
			if d.IsDir() {
				log.Debug("skipping directory beyond depth", "depth", opt.Depth, "path", path)

				return filepath.SkipDir
			}

			return nil
		}

		if path != opt.Root {
			if re := shouldExcludeByPattern(path, excludeRegexes); re != nil {
				log.Debug("excluding", "path", filepath.ToSlash(path), "regex", re.String())

				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if opt.MinSize > 0 {
			info, err := d.Info()
			if err != nil {
				return &TraversalError{Root: opt.Root, Path: path, Err: err}
			}

			if info.Size() < opt.MinSize {
				return nil
			}
		}

		collector.add(path)

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(collector.paths)

	log.Debug("walk finished", "root", opt.Root, "files", len(collector.paths))

	return collector.paths, nil
}

// Filter returns the paths containing pattern, in their original order.
// Matching is a case-sensitive substring test; an empty pattern keeps
// every path.
func Filter(paths []string, pattern string) []string {
	matches := make([]string, 0, len(paths))

	for _, path := range paths {
		if strings.Contains(path, pattern) {
			matches = append(matches, path)
		}
	}

	return matches
}
