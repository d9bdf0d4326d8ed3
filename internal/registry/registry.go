// Package registry maps wrapped tool names to the credential bindings and
// materialization strategy they need.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/puzpuzpuz/xsync/v2"
	"github.com/vaultrun/vaultrun/internal/secretstore"
)

// Strategy selects how resolved secrets become visible to the wrapped
// tool.
type Strategy string

const (
	// StrategyExport resolves all bindings inside a store-spawned
	// subprocess as environment variables.
	StrategyExport Strategy = "export"

	// StrategyBridgeFile materializes exactly one secret behind a
	// single-use executable, for tools that fetch credentials through an
	// external-program callback rather than the environment.
	StrategyBridgeFile Strategy = "bridge-file"
)

// ErrUnknownTool is returned when no profile is registered for a tool.
var ErrUnknownTool = errors.New("unknown tool")

// A Profile is everything needed to build a credential scope for one
// wrapped tool. Profiles are read-only at run time.
type Profile struct {
	Tool     string                `json:"tool"`
	Strategy Strategy              `json:"strategy"`
	Bindings []secretstore.Binding `json:"bindings"`
}

// Registry holds tool profiles keyed uniquely by tool name. Registering a
// tool is a configuration-time operation; the registry is never written
// after construction.
type Registry struct {
	profiles *xsync.MapOf[string, Profile]
}

// New returns a registry preloaded with the built-in tool profiles.
func New() *Registry {
	r := &Registry{profiles: xsync.NewMapOf[Profile]()}
	for _, p := range defaultProfiles {
		// Built-ins are static and validated by tests; a failure here is
		// programmer error.
		if err := r.add(p); err != nil {
			panic(err)
		}
	}
	return r
}

// LoadFile merges profiles from a JSON config file over the registry.
// A profile with the same tool name as a built-in replaces it.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading tool config %q: %w", path, err)
	}
	if err := r.LoadJSON(data); err != nil {
		return fmt.Errorf("loading tool config %q: %w", path, err)
	}
	return nil
}

// LoadJSON merges profiles from a JSON document: an array of profile
// objects.
func (r *Registry) LoadJSON(data []byte) error {
	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return fmt.Errorf("unmarshalling tool profiles: %w", err)
	}

	for _, p := range profiles {
		if err := r.add(p); err != nil {
			return err
		}
	}

	return nil
}

// add validates a profile for internal consistency and registers it.
// Validation against actual vault contents is deferred to materialization
// time, since vault contents are themselves dynamic.
func (r *Registry) add(p Profile) error {
	if p.Tool == "" {
		return errors.New("tool profile is missing a tool name")
	}

	switch p.Strategy {
	case StrategyExport, StrategyBridgeFile:
	default:
		return fmt.Errorf("tool %q: invalid strategy %q", p.Tool, p.Strategy)
	}

	if len(p.Bindings) == 0 {
		return fmt.Errorf("tool %q: profile has no bindings", p.Tool)
	}
	if p.Strategy == StrategyBridgeFile && len(p.Bindings) != 1 {
		return fmt.Errorf("tool %q: the %s strategy takes exactly one binding, got %d", p.Tool, StrategyBridgeFile, len(p.Bindings))
	}

	seen := make(map[string]bool, len(p.Bindings))
	for i, b := range p.Bindings {
		if b.Name == "" {
			return fmt.Errorf("tool %q: binding %d is missing a destination name", p.Tool, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("tool %q: duplicate destination name %q", p.Tool, b.Name)
		}
		seen[b.Name] = true

		if b.Ref.IsZero() {
			ref, err := secretstore.ParseRef(b.RawRef)
			if err != nil {
				return fmt.Errorf("tool %q: binding %q: %w", p.Tool, b.Name, err)
			}
			p.Bindings[i].Ref = ref
		}
	}

	r.profiles.Store(p.Tool, p)
	return nil
}

// Resolve returns the profile for a tool name.
func (r *Registry) Resolve(tool string) (Profile, error) {
	p, ok := r.profiles.Load(tool)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	return p, nil
}

// Tools returns the sorted names of every registered tool.
func (r *Registry) Tools() []string {
	names := []string{}
	r.profiles.Range(func(name string, _ Profile) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}
