// Package rdedupe finds files with identical contents.
//
// It walks directory trees using fastwalk for parallel traversal, hashes
// the matching files on a fixed pool of workers, groups files that share a
// digest and computes the size and potential savings of every duplicate
// group.
package rdedupe
