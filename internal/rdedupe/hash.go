package rdedupe

import (
	"crypto/md5" //nolint:gosec // Content fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// ErrNotRegular is returned when a path handed to the hasher is not a regular file.
var ErrNotRegular = errors.New("not a regular file")

// Algorithm selects the content digest.
type Algorithm string

const (
	// BLAKE3 is the default digest.
	BLAKE3 Algorithm = "blake3"
	// BLAKE2B is the 256-bit BLAKE2b digest.
	BLAKE2B Algorithm = "blake2b"
	// SHA256 is the SHA-256 digest.
	SHA256 Algorithm = "sha256"
	// MD5 matches the checksums produced by earlier releases.
	MD5 Algorithm = "md5"
)

// Algorithms lists the supported digests in display order.
//
//nolint:gochecknoglobals // Lookup table
var Algorithms = []Algorithm{BLAKE3, BLAKE2B, SHA256, MD5}

// ParseAlgorithm resolves a case-insensitive algorithm name. The empty
// string selects BLAKE3.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return BLAKE3, nil
	}

	for _, a := range Algorithms {
		if strings.EqualFold(name, string(a)) {
			return a, nil
		}
	}

	return "", fmt.Errorf("unknown hash algorithm %q: must be one of %v", name, Algorithms)
}

func (a Algorithm) new() hash.Hash {
	switch a {
	case BLAKE2B:
		h, _ := blake2b.New256(nil) // Only fails for keys over 64 bytes

		return h
	case SHA256:
		return sha256.New()
	case MD5:
		return md5.New() //nolint:gosec // See import
	default:
		return blake3.New()
	}
}

// Digest is a fixed-size content fingerprint. Digests are comparable and
// can be used as map keys; two files with equal digests are treated as
// identical.
type Digest struct {
	sum  [32]byte
	size uint8
}

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d.sum[:d.size])
}

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool {
	return d.size == 0
}

// MarshalText implements encoding.TextMarshaler so digests encode as hex in JSON.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func digestOf(h hash.Hash) Digest {
	var d Digest

	d.size = uint8(copy(d.sum[:], h.Sum(nil))) //nolint:gosec // At most 32

	return d
}

// Hasher computes content digests of whole files.
type Hasher struct {
	algorithm Algorithm
}

// NewHasher returns a hasher for the given algorithm. An empty algorithm selects BLAKE3.
func NewHasher(algorithm Algorithm) Hasher {
	if algorithm == "" {
		algorithm = BLAKE3
	}

	return Hasher{algorithm: algorithm}
}

// Algorithm returns the digest the hasher computes.
func (h Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// SumBytes returns the digest of data.
func (h Hasher) SumBytes(data []byte) Digest {
	w := h.algorithm.new()
	w.Write(data) //nolint:errcheck // hash.Hash writes never fail

	return digestOf(w)
}

// Sum returns the digest of the full contents of the file at path. The
// file is streamed through the digest, so the result equals SumBytes of
// the file's bytes. Failures are returned as *IOError.
func (h Hasher) Sum(path string) (digest Digest, err error) {
	defer func() {
		if err != nil {
			err = &IOError{Op: "hash", Path: path, Err: err}
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Digest{}, err
	}

	if !info.Mode().IsRegular() {
		return Digest{}, ErrNotRegular
	}

	w := h.algorithm.new()
	if _, err := io.Copy(w, file); err != nil {
		return Digest{}, fmt.Errorf("reading contents: %w", err)
	}

	return digestOf(w), nil
}
