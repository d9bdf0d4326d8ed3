// Package session owns the lifecycle of authenticated secret store
// sessions: acquisition, caching, validation and invalidation.
package session

import (
	"errors"
	"time"
)

// Source records how a session was acquired.
type Source string

const (
	// Interactive sessions come from a human signing in on a terminal.
	Interactive Source = "interactive"

	// ServiceAccount sessions come from a pre-provisioned non-interactive
	// credential.
	ServiceAccount Source = "service_account"
)

// ServiceTokenEnvVar is the environment variable CI platforms use to supply
// the non-interactive service credential.
const ServiceTokenEnvVar = "VAULTRUN_SERVICE_TOKEN"

// A Handle is proof of a successful authentication against the secret
// store. Handles are never mutated: renewal produces a new one.
type Handle struct {
	Token      string    `json:"token"`
	Source     Source    `json:"source"`
	AcquiredAt time.Time `json:"acquired_at"`

	// Cached is true when the handle was loaded from the local store
	// rather than freshly acquired. Not persisted.
	Cached bool `json:"-"`
}

// IsZero reports whether the handle is empty.
func (h Handle) IsZero() bool {
	return h.Token == ""
}

var (
	// ErrExhaustedRetries is returned when interactive sign-in fails the
	// maximum number of times.
	ErrExhaustedRetries = errors.New("interactive sign-in attempts exhausted")

	// ErrMissingServiceCredential is returned in CI contexts when no
	// service credential was provided. There is no human present to
	// resolve it, so there is nothing to retry.
	ErrMissingServiceCredential = errors.New("no service credential provided (set " + ServiceTokenEnvVar + ")")
)
