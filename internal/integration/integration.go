// Package integration provides the zsh widget printed by `rdedupe --init`.
//
// The widget, rdedupe-fzf, runs a scan with list output (one
// "group<TAB>size<TAB>path" line per duplicate file) and hands the lines to
// fzf, previewing every member of the highlighted group. The CSV reports that
// each scan writes are redirected to a temporary file next to the list and
// removed together with it, so browsing never leaves file_report.csv behind.
package integration

import (
	"bytes"
	_ "embed"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/blackopsrepl/rdedupe/internal/report"
)

// Binary is the command name the widget invokes.
const Binary = "rdedupe"

// Widget is the name of the shell function defined by the script.
const Widget = "rdedupe-fzf"

// ZshFzf contains the zsh script template with fzf support.
//
//go:embed zsh-fzf.sh
var ZshFzf string

// Script is the data the template is rendered with.
type Script struct {
	// Zsh is the interpreter used in the shebang.
	Zsh string
	// Binary is the rdedupe command to run.
	Binary string
	// Widget is the shell function name.
	Widget string
	// Flags are passed to every scan; they select list output and silence progress.
	Flags string
	// ReportSuffix and GroupsSuffix turn the temporary list path into the
	// paths of the two CSV reports written by the scan.
	ReportSuffix string
	GroupsSuffix string
}

// NewScript returns the script data for the given zsh path.
func NewScript(zsh string) Script {
	return Script{
		Zsh:          filepath.ToSlash(zsh),
		Binary:       Binary,
		Widget:       Widget,
		Flags:        strings.Join([]string{"--output", "list", "--no-progress"}, " "),
		ReportSuffix: filepath.Ext(report.DefaultPath),
		GroupsSuffix: strings.TrimPrefix(report.GroupsPath(report.DefaultPath), strings.TrimSuffix(report.DefaultPath, filepath.Ext(report.DefaultPath))),
	}
}

// Render renders the widget for the zsh found on PATH.
func Render() (string, error) {
	zsh, err := exec.LookPath("zsh")
	if err != nil {
		return "", err
	}

	return NewScript(zsh).Render()
}

// Render executes the embedded template with s.
func (s Script) Render() (string, error) {
	tmpl, err := template.New(Widget).Parse(ZshFzf)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, s); err != nil {
		return "", err
	}

	return buf.String(), nil
}
