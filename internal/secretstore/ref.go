// Package secretstore is the boundary between vaultrun and the external
// secret store. The store itself is opaque: it authenticates sessions,
// reads single secret values, and resolves exported secrets inside a
// spawned subprocess. Everything else is somebody else's problem.
package secretstore

import (
	"fmt"
	"strings"
)

// Scheme is the URI scheme for secret references.
const Scheme = "vault"

// A Ref locates one secret value in the external store.
type Ref struct {
	Vault string
	Item  string
	Field string
}

// ParseRef parses a reference of the form vault://<vault>/<item>/<field>.
func ParseRef(s string) (Ref, error) {
	rest, ok := strings.CutPrefix(s, Scheme+"://")
	if !ok {
		return Ref{}, fmt.Errorf("secret reference %q must begin with %s://", s, Scheme)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return Ref{}, fmt.Errorf("secret reference %q must have the form %s://<vault>/<item>/<field>", s, Scheme)
	}
	for _, p := range parts {
		if p == "" {
			return Ref{}, fmt.Errorf("secret reference %q has an empty component", s)
		}
	}

	return Ref{Vault: parts[0], Item: parts[1], Field: parts[2]}, nil
}

// MustParseRef is ParseRef for statically known references; it panics on
// malformed input.
func MustParseRef(s string) Ref {
	ref, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func (r Ref) String() string {
	return fmt.Sprintf("%s://%s/%s/%s", Scheme, r.Vault, r.Item, r.Field)
}

// IsZero reports whether the ref is empty.
func (r Ref) IsZero() bool {
	return r == Ref{}
}
