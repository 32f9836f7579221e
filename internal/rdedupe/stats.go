package rdedupe

import "os"

// FileRow describes one scanned file.
type FileRow struct {
	// Path is the file path.
	Path string `json:"path"`
	// IsDuplicate is set when the file belongs to a duplicate group.
	IsDuplicate bool `json:"is_duplicate"`
	// Size is the size in bytes.
	Size uint64 `json:"size"`
}

// GroupRow describes one duplicate group.
type GroupRow struct {
	// Digest is the content digest shared by the group.
	Digest Digest `json:"digest"`
	// Paths are the member files.
	Paths []string `json:"paths"`
	// Occurrences is the number of copies.
	Occurrences int `json:"occurrences"`
	// Size is the size of a single copy in bytes.
	Size uint64 `json:"size"`
	// TotalSize is the combined size of all copies.
	TotalSize uint64 `json:"total_size"`
	// PotentialSave is the number of bytes freed by keeping a single copy.
	PotentialSave uint64 `json:"potential_save"`
}

// Report holds the by-file and by-group tables of a scan.
type Report struct {
	// Files has one row per scanned file that could be sized.
	Files []FileRow `json:"files"`
	// Groups has one row per duplicate group.
	Groups []GroupRow `json:"groups"`
	// Failures lists files that could not be hashed or sized.
	Failures []*IOError `json:"failures"`
	// TotalBytes is the cumulative size of all rows in Files.
	TotalBytes uint64 `json:"total_bytes"`
	// DuplicateFiles is the number of files that have at least one copy.
	DuplicateFiles int `json:"duplicate_files"`
	// PotentialSave is the sum of PotentialSave over all groups.
	PotentialSave uint64 `json:"potential_save"`
}

// sizer stats each path at most once.
type sizer struct {
	sizes  map[string]uint64
	failed map[string]*IOError
}

func newSizer() *sizer {
	return &sizer{
		sizes:  make(map[string]uint64),
		failed: make(map[string]*IOError),
	}
}

// size returns the on-disk size of path. The error is reported only on the
// first failing call for a path; later calls return ok=false silently.
func (s *sizer) size(path string) (size uint64, ok bool, err *IOError) {
	if size, ok := s.sizes[path]; ok {
		return size, true, nil
	}

	if _, failed := s.failed[path]; failed {
		return 0, false, nil
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		err = &IOError{Op: "stat", Path: path, Err: statErr}
		s.failed[path] = err

		return 0, false, err
	}

	size = uint64(info.Size()) //nolint:gosec // File sizes are never negative
	s.sizes[path] = size

	return size, true, nil
}

// Aggregate sizes every path and computes the per-file and per-group
// tables. A path that can no longer be stat-ed is recorded in
// Report.Failures and left out of Files; with failFast set, the first such
// failure is returned instead.
//
// A group's PotentialSave is the size of one copy times the number of
// redundant copies. All members share a digest, so any member's size
// stands for the group.
func Aggregate(paths []string, groups []DuplicateGroup, failFast bool) (*Report, error) {
	report := &Report{
		Files:  make([]FileRow, 0, len(paths)),
		Groups: make([]GroupRow, 0, len(groups)),
	}

	members := make(map[string]struct{})
	for _, group := range groups {
		for _, path := range group.Paths {
			members[path] = struct{}{}
		}
	}

	s := newSizer()

	record := func(err *IOError) error {
		if err == nil {
			return nil
		}

		if failFast {
			return err
		}

		report.Failures = append(report.Failures, err)

		return nil
	}

	for _, path := range paths {
		size, ok, err := s.size(path)
		if fatal := record(err); fatal != nil {
			return nil, fatal
		}

		if !ok {
			continue
		}

		_, dup := members[path]
		if dup {
			report.DuplicateFiles++
		}

		report.TotalBytes += size
		report.Files = append(report.Files, FileRow{Path: path, IsDuplicate: dup, Size: size})
	}

	for _, group := range groups {
		row := GroupRow{
			Digest:      group.Digest,
			Paths:       group.Paths,
			Occurrences: len(group.Paths),
		}

		sized := false

		for _, path := range group.Paths {
			size, ok, err := s.size(path)
			if fatal := record(err); fatal != nil {
				return nil, fatal
			}

			if !ok {
				continue
			}

			if !sized {
				row.Size = size
				sized = true
			}

			row.TotalSize += size
		}

		row.PotentialSave = uint64(row.Occurrences-1) * row.Size //nolint:gosec // Occurrences >= 2
		report.PotentialSave += row.PotentialSave
		report.Groups = append(report.Groups, row)
	}

	return report, nil
}
