// Package fingerprint computes the stable identity of a worker
// configuration: the content hash that, if it changes, means a fresh
// worker is required instead of reusing one already running.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// Digest is a 256-bit content hash.
type Digest [sha256.Size]byte

// String renders the digest as lowercase hex, mostly for logging.
func (d Digest) String() string {
	return fmt.Sprintf("%x", [sha256.Size]byte(d))
}

// Fingerprint is the identity of a worker configuration: a
// human-readable name plus the digest of everything that determines
// whether an existing worker can be reused.
type Fingerprint struct {
	Name   string
	Digest Digest
}

// Equal reports whether two fingerprints identify the same worker
// configuration. Both the name and the digest must match.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Name == other.Name && f.Digest == other.Digest
}

// Inputs bundles every field that determines a worker's identity. It is
// intentionally independent of the caller's process-spec type so this
// package stays leaf-level and importable from the root package without
// a cycle.
type Inputs struct {
	Executable     string
	Argv           []string
	Env            map[string]string
	InputTreeHash  [sha256.Size]byte
	StartupOptions []string
}

// New computes the fingerprint for name under the given inputs.
//
// Two calls with equal name and equal Inputs always compare equal;
// changing argv, env, or the input tree hash always changes the digest.
func New(name string, in Inputs) (Fingerprint, error) {
	h := sha256.New()

	if _, err := fmt.Fprintf(h, "exe:%s\x00", in.Executable); err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
	}
	for _, a := range in.Argv {
		if _, err := fmt.Fprintf(h, "argv:%s\x00", a); err != nil {
			return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
		}
	}

	keys := make([]string, 0, len(in.Env))
	for k := range in.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(h, "env:%s=%s\x00", k, in.Env[k]); err != nil {
			return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
		}
	}

	if _, err := h.Write(in.InputTreeHash[:]); err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
	}

	for _, o := range in.StartupOptions {
		if _, err := fmt.Fprintf(h, "opt:%s\x00", o); err != nil {
			return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
		}
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return Fingerprint{Name: name, Digest: d}, nil
}
