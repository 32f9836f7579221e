package rdedupe

import (
	"slices"
	"sort"
)

// DuplicateGroup is a set of at least two files sharing one digest.
type DuplicateGroup struct {
	// Digest is the shared content digest.
	Digest Digest `json:"digest"`
	// Paths are the member files, sorted.
	Paths []string `json:"paths"`
}

// Duplicates returns every bucket of the index holding two or more files.
// Single-file buckets are dropped; no bucket is split or merged.
//
// Paths inside a group are sorted and groups are ordered by their first
// path, so the same tree always yields the same listing.
func (x *DigestIndex) Duplicates() []DuplicateGroup {
	groups := make([]DuplicateGroup, 0)

	for digest, paths := range x.buckets {
		if len(paths) < 2 { //nolint:mnd // A duplicate needs a second copy
			continue
		}

		members := slices.Clone(paths)
		sort.Strings(members)

		groups = append(groups, DuplicateGroup{Digest: digest, Paths: members})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Paths[0] < groups[j].Paths[0]
	})

	return groups
}
