package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/blackopsrepl/rdedupe/internal/rdedupe"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2

	roundTo = time.Millisecond
)

// jsonOutput is the document printed by --output json.
type jsonOutput struct {
	Pattern   string             `json:"pattern"`
	Algorithm rdedupe.Algorithm  `json:"algorithm"`
	Matched   int                `json:"matched"`
	Groups    []rdedupe.GroupRow `json:"groups"`
	Files     []rdedupe.FileRow  `json:"files"`
	Failures  []*rdedupe.IOError `json:"failures"`
	Totals    jsonTotals         `json:"totals"`
	Elapsed   string             `json:"elapsed"`
}

type jsonTotals struct {
	Bytes          uint64 `json:"bytes"`
	DuplicateFiles int    `json:"duplicate_files"`
	Groups         int    `json:"groups"`
	PotentialSave  uint64 `json:"potential_save"`
}

// PrintJSON outputs the scan result in JSON format.
func PrintJSON(result *rdedupe.Result, pattern string, writer io.Writer) error {
	failures := result.Failures()
	if failures == nil {
		failures = []*rdedupe.IOError{}
	}

	out := jsonOutput{
		Pattern:   pattern,
		Algorithm: result.Algorithm,
		Matched:   len(result.Files),
		Groups:    result.Report.Groups,
		Files:     result.Report.Files,
		Failures:  failures,
		Totals: jsonTotals{
			Bytes:          result.Report.TotalBytes,
			DuplicateFiles: result.Report.DuplicateFiles,
			Groups:         len(result.Report.Groups),
			PotentialSave:  result.Report.PotentialSave,
		},
		Elapsed: result.Elapsed.Round(roundTo).String(),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintList outputs one line per duplicate file: group number, size in
// bytes and path, separated by tabs.
func PrintList(result *rdedupe.Result, writer io.Writer) error {
	for i, group := range result.Report.Groups {
		for _, path := range group.Paths {
			if _, err := fmt.Fprintf(writer, "%d\t%d\t%s\n", i+1, group.Size, path); err != nil {
				return err
			}
		}
	}

	return nil
}

// PrintTable outputs the duplicate groups and statistics in human-readable
// table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(result *rdedupe.Result, pattern string, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)
	rep := result.Report

	fmt.Fprintf(w, "Found %d files matching %q\n", len(result.Files), pattern)

	if len(rep.Groups) > 0 {
		fmt.Fprintln(w, "\nDuplicate groups:\t\t")
	}

	for i, group := range rep.Groups {
		fmt.Fprintf(w, "  %d) %d copies of %s\t%s reclaimable\t%s\n",
			i+1, group.Occurrences, humanize.IBytes(group.Size),
			humanize.IBytes(group.PotentialSave), group.Digest.String()[:12])

		for _, path := range group.Paths {
			fmt.Fprintf(w, "       '%s'\t\t\n", path)
		}
	}

	fmt.Fprintf(w, "\nFound %d duplicate(s)\n", len(rep.Groups))

	if len(rep.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:\t\t")

		for _, failure := range rep.Failures {
			fmt.Fprintf(w, "  %s '%s'\t%v\t\n", failure.Op, failure.Path, failure.Err)
		}
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Total files:\t%d\n", len(rep.Files))
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", humanize.IBytes(rep.TotalBytes), rep.TotalBytes)
	fmt.Fprintf(w, "Duplicate files:\t%d\n", rep.DuplicateFiles)
	fmt.Fprintf(w, "Potential save:\t%s (%d bytes)\n", humanize.IBytes(rep.PotentialSave), rep.PotentialSave)
	fmt.Fprintf(w, "Digest:\t%s\n", result.Algorithm)

	fmt.Fprintf(w, "\nElapsed:\t%v\n", result.Elapsed.Round(roundTo))

	return w.Flush()
}
