package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blackopsrepl/rdedupe/internal/rdedupe"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	return records
}

func TestGroupsPath(t *testing.T) {
	tests := map[string]string{
		"file_report.csv":     "file_report_groups.csv",
		"/tmp/out/scan.csv":   "/tmp/out/scan_groups.csv",
		"report":              "report_groups",
		"dir.d/report.tar.gz": "dir.d/report.tar_groups.gz",
	}

	for in, want := range tests {
		if got := GroupsPath(in); got != want {
			t.Errorf("GroupsPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	rep := &rdedupe.Report{
		Files: []rdedupe.FileRow{
			{Path: "a.txt", IsDuplicate: true, Size: 5},
			{Path: "b.txt", IsDuplicate: true, Size: 5},
			{Path: "c, with comma.txt", IsDuplicate: false, Size: 7},
		},
		Groups: []rdedupe.GroupRow{
			{Paths: []string{"a.txt", "b.txt"}, Occurrences: 2, Size: 5, TotalSize: 10, PotentialSave: 5},
		},
	}

	if err := Write(path, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}

	wantFiles := [][]string{
		FileHeader,
		{"a.txt", "true", "5"},
		{"b.txt", "true", "5"},
		{"c, with comma.txt", "false", "7"},
	}
	if got := readCSV(t, path); !reflect.DeepEqual(got, wantFiles) {
		t.Errorf("by-file table = %v, want %v", got, wantFiles)
	}

	wantGroups := [][]string{
		GroupHeader,
		{"2", "10", "5", "a.txt" + string(filepath.ListSeparator) + "b.txt"},
	}
	if got := readCSV(t, GroupsPath(path)); !reflect.DeepEqual(got, wantGroups) {
		t.Errorf("by-group table = %v, want %v", got, wantGroups)
	}
}

func TestWriteEmptyReportHasHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)

	if err := Write(path, &rdedupe.Report{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := readCSV(t, path); !reflect.DeepEqual(got, [][]string{FileHeader}) {
		t.Errorf("by-file table = %v, want header only", got)
	}

	if got := readCSV(t, GroupsPath(path)); !reflect.DeepEqual(got, [][]string{GroupHeader}) {
		t.Errorf("by-group table = %v, want header only", got)
	}
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("stale,content,here\nmore,stale,rows\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Write(path, &rdedupe.Report{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got := readCSV(t, path); len(got) != 1 {
		t.Errorf("by-file table = %v, want only the header", got)
	}
}

func TestWriteUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", DefaultPath)

	err := Write(path, &rdedupe.Report{})

	var writeErr *rdedupe.ReportWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Write error = %v, want *ReportWriteError", err)
	}

	if writeErr.Path != path {
		t.Errorf("ReportWriteError.Path = %q, want %q", writeErr.Path, path)
	}
}
