package secretstore

import "context"

// A Binding pairs a secret reference with the environment variable name the
// wrapped tool expects it under.
type Binding struct {
	Name string `json:"env"`
	Ref  Ref    `json:"-"`

	// RawRef carries the unparsed reference through JSON configuration.
	RawRef string `json:"ref"`
}

// Command describes a ready-to-spawn subprocess: the program, its argument
// vector, and environment variables to add on top of the caller's
// environment.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// SignInRequest describes how a session should be established.
type SignInRequest struct {
	// Interactive sign-in may prompt a human on the controlling terminal.
	Interactive bool

	// ServiceToken is a pre-provisioned non-interactive credential. Used
	// when Interactive is false.
	ServiceToken string
}

// Client is what vaultrun requires of the external secret store.
// Implementations must be safe for use from a single invocation at a time;
// vaultrun never shares a Client across concurrent invocations.
type Client interface {
	// SignIn establishes a session and returns an opaque session token.
	SignIn(ctx context.Context, req SignInRequest) (string, error)

	// Verify checks a session token against the store. A nil return means
	// the store accepted it; any error means the token must be treated as
	// absent.
	Verify(ctx context.Context, token string) error

	// SignOut invalidates a session token.
	SignOut(ctx context.Context, token string) error

	// Read resolves exactly one secret value.
	Read(ctx context.Context, token string, ref Ref) (string, error)

	// ExportCommand builds the store's "run subprocess with these exports
	// resolved at spawn time" invocation. The referenced values resolve
	// inside the spawned process, never in vaultrun's own environment.
	ExportCommand(token string, bindings []Binding, program string, args ...string) Command
}
