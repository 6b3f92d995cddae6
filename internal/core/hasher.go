package core

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// SelectionHash is the deterministic identity of a SelectionResult.
//
// It covers the ordered identities of the selected nodes and nothing else,
// so two runs that pick the same artifacts in the same order share a hash
// whatever their resolved locations are.
type SelectionHash string

// String returns the string representation of the SelectionHash.
func (h SelectionHash) String() string { return string(h) }

// ComputeSelectionHash hashes the selection in order.
//
// All fields are length-prefixed to prevent ambiguity between, for example,
// group "a.b" name "c" and group "a" name "b.c".
func ComputeSelectionHash(selection SelectionResult) SelectionHash {
	hasher := blake3.New()

	writeField := func(data []byte) {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(len(data)))
		hasher.Write(length[:])
		hasher.Write(data)
	}

	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(len(selection)))
	writeField(count[:])
	for _, n := range selection {
		writeField([]byte(n.Identity.Group))
		writeField([]byte(n.Identity.Name))
		writeField([]byte(n.Identity.Version))
		writeField([]byte(n.Identity.Type))
	}

	return SelectionHash(hex.EncodeToString(hasher.Sum(nil)))
}

// Digester is an io.Writer that computes the BLAKE3 digest and the size of
// everything written to it.
type Digester struct {
	hasher *blake3.Hasher
	size   int64
}

// NewDigester returns an empty Digester.
func NewDigester() *Digester {
	return &Digester{hasher: blake3.New()}
}

func (d *Digester) Write(p []byte) (int, error) {
	n, err := d.hasher.Write(p)
	d.size += int64(n)
	return n, err
}

// Sum returns the hex digest and byte count of the data written so far.
func (d *Digester) Sum() (string, int64) {
	return hex.EncodeToString(d.hasher.Sum(nil)), d.size
}

// DigestFile returns the hex BLAKE3 digest and the size of the file at path.
func DigestFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	d := NewDigester()
	if _, err := io.Copy(d, f); err != nil {
		return "", 0, err
	}
	digest, size := d.Sum()
	return digest, size, nil
}
