package rdedupe

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"testing"
)

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "sub/c.txt", "c")
	writeFile(t, dir, "sub/deep/d.bin", "dddd")

	if err := os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got, err := Walk(context.Background(), WalkOptions{Root: dir})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "c.txt"),
		filepath.Join(dir, "sub", "deep", "d.bin"),
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Walk = %v, want %v", got, want)
	}
}

func TestWalkOptions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", "x")
	writeFile(t, dir, "big.txt", "0123456789")
	writeFile(t, dir, ".git/objects/blob", "0123456789")
	writeFile(t, dir, "sub/deep/big.txt", "0123456789")

	tests := []struct {
		name string
		opt  WalkOptions
		want []string
	}{
		{
			name: "exclude",
			opt:  WalkOptions{Excludes: []string{`.*\.git/.*`}},
			want: []string{"big.txt", "small.txt", "sub/deep/big.txt"},
		},
		{
			name: "depth",
			opt:  WalkOptions{Depth: 1},
			want: []string{"big.txt", "small.txt"},
		},
		{
			name: "min size",
			opt:  WalkOptions{MinSize: 5},
			want: []string{".git/objects/blob", "big.txt", "sub/deep/big.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opt.Root = dir

			got, err := Walk(context.Background(), tt.opt)
			if err != nil {
				t.Fatalf("Walk: %v", err)
			}

			want := make([]string, 0, len(tt.want))
			for _, rel := range tt.want {
				want = append(want, filepath.Join(dir, filepath.FromSlash(rel)))
			}

			if !reflect.DeepEqual(got, want) {
				t.Errorf("Walk = %v, want %v", got, want)
			}
		})
	}
}

func TestWalkExcludeAnchoredAtDot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "a")
	writeFile(t, dir, "sub/b.txt", "b")
	t.Chdir(dir)

	got, err := Walk(context.Background(), WalkOptions{Root: ".", Excludes: []string{"^sub/"}})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(got) != 1 || filepath.Base(got[0]) != "a.txt" {
		t.Errorf("Walk = %v, want only a.txt", got)
	}
}

func TestShouldExcludeByPattern(t *testing.T) {
	patterns := []*regexp.Regexp{regexp.MustCompile(`^sub/`)}

	tests := map[string]bool{
		"./sub/b.txt":     true,
		"sub/b.txt":       true,
		"./a.txt":         false,
		"other/sub/b.txt": false,
	}

	for path, want := range tests {
		if got := shouldExcludeByPattern(filepath.FromSlash(path), patterns) != nil; got != want {
			t.Errorf("shouldExcludeByPattern(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWalkEmptyDirectory(t *testing.T) {
	got, err := Walk(context.Background(), WalkOptions{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("Walk(empty) = %v, want none", got)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	_, err := Walk(context.Background(), WalkOptions{Root: root})

	var travErr *TraversalError
	if !errors.As(err, &travErr) {
		t.Fatalf("Walk error = %v, want *TraversalError", err)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(%v, fs.ErrNotExist) = false", err)
	}
}

func TestWalkRootIsFile(t *testing.T) {
	file := writeFile(t, t.TempDir(), "file", "x")

	_, err := Walk(context.Background(), WalkOptions{Root: file})

	var travErr *TraversalError
	if !errors.As(err, &travErr) {
		t.Fatalf("Walk error = %v, want *TraversalError", err)
	}
}

func TestWalkBadExclude(t *testing.T) {
	if _, err := Walk(context.Background(), WalkOptions{Root: t.TempDir(), Excludes: []string{"("}}); err == nil {
		t.Fatal("Walk should reject an invalid regex")
	}
}

func TestFilter(t *testing.T) {
	paths := []string{"/data/a.txt", "/data/b.TXT", "/other/c.txt", "/data/d.md"}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", paths},
		{".txt", []string{"/data/a.txt", "/other/c.txt"}},
		{"TXT", []string{"/data/b.TXT"}},
		{"/data/", []string{"/data/a.txt", "/data/b.TXT", "/data/d.md"}},
		{"nomatch", []string{}},
	}

	for _, tt := range tests {
		if got := Filter(paths, tt.pattern); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Filter(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}
