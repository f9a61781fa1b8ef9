// Package canonical produces RFC 8785 canonical JSON and content hashes for
// journal entries and graph snapshots, so that two independently-replayed
// copies of the same data hash identically regardless of Go's randomized
// map iteration order.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JSON marshals v with encoding/json then runs the result through the JCS
// transform, returning canonical bytes suitable for hashing or signing.
func JSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: jcs transform: %w", err)
	}
	return out, nil
}

// Hash returns the "sha256:<hex>" content hash of v's canonical JSON form.
func Hash(v interface{}) (string, error) {
	data, err := JSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// HashBytes returns the "sha256:<hex>" content hash of raw bytes, with no
// canonicalization applied. Used when the caller already holds canonical
// or opaque bytes (e.g. a journal line) and only needs a digest.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return "sha256:" + hex.EncodeToString(sum[:])
}
