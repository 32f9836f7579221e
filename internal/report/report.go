// Package report writes scan statistics as CSV.
package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackopsrepl/rdedupe/internal/rdedupe"
)

// DefaultPath is the by-file report written to the working directory.
const DefaultPath = "file_report.csv"

// FileHeader is the header of the by-file table.
//
//nolint:gochecknoglobals // Column layout
var FileHeader = []string{"File", "isDuplicate", "Size"}

// GroupHeader is the header of the by-group table.
//
//nolint:gochecknoglobals // Column layout
var GroupHeader = []string{"Occurrences", "TotalSize", "PotentialSave", "Files"}

// GroupsPath returns the by-group report path belonging to path:
// file_report.csv becomes file_report_groups.csv.
func GroupsPath(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "_groups" + ext
}

// Write writes the by-file table to path and the by-group table to
// GroupsPath(path), replacing existing files. Both tables always carry
// their header, so an empty scan produces header-only files.
func Write(path string, report *rdedupe.Report) error {
	if err := writeFile(path, func(w *csv.Writer) error { return writeFiles(w, report) }); err != nil {
		return err
	}

	return writeFile(GroupsPath(path), func(w *csv.Writer) error { return writeGroups(w, report) })
}

func writeFile(path string, write func(*csv.Writer) error) (err error) {
	defer func() {
		if err != nil {
			err = &rdedupe.ReportWriteError{Path: path, Err: err}
		}
	}()

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()

	w := csv.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}

	w.Flush()

	return w.Error()
}

func writeFiles(w *csv.Writer, report *rdedupe.Report) error {
	if err := w.Write(FileHeader); err != nil {
		return err
	}

	for _, row := range report.Files {
		if err := w.Write([]string{
			row.Path,
			strconv.FormatBool(row.IsDuplicate),
			strconv.FormatUint(row.Size, 10),
		}); err != nil {
			return err
		}
	}

	return nil
}

func writeGroups(w *csv.Writer, report *rdedupe.Report) error {
	if err := w.Write(GroupHeader); err != nil {
		return err
	}

	for _, row := range report.Groups {
		if err := w.Write([]string{
			strconv.Itoa(row.Occurrences),
			strconv.FormatUint(row.TotalSize, 10),
			strconv.FormatUint(row.PotentialSave, 10),
			strings.Join(row.Paths, string(filepath.ListSeparator)),
		}); err != nil {
			return err
		}
	}

	return nil
}
