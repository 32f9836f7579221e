package rdedupe

import (
	"encoding/json"
	"fmt"
)

// TraversalError reports a failure to enumerate the files under a root.
// It aborts the run: duplicates are never computed from a partial file list.
type TraversalError struct {
	// Root is the directory being walked.
	Root string
	// Path is the entry that failed, equal to Root when the root itself is unusable.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *TraversalError) Error() string {
	if e.Path == "" || e.Path == e.Root {
		return fmt.Sprintf("walking %q: %v", e.Root, e.Err)
	}

	return fmt.Sprintf("walking %q: entry %q: %v", e.Root, e.Path, e.Err)
}

func (e *TraversalError) Unwrap() error { return e.Err }

// IOError reports a single file that could not be hashed or sized.
type IOError struct {
	// Op is the failed operation, "hash" or "stat".
	Op string
	// Path is the file the operation was applied to.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// MarshalJSON encodes the failure with its error message.
func (e *IOError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Op    string `json:"op"`
		Path  string `json:"path"`
		Error string `json:"error"`
	}{e.Op, e.Path, e.Err.Error()})
}

// ReportWriteError reports a failure to create or write a report file.
type ReportWriteError struct {
	// Path is the report destination.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *ReportWriteError) Error() string {
	return fmt.Sprintf("writing report %q: %v", e.Path, e.Err)
}

func (e *ReportWriteError) Unwrap() error { return e.Err }
