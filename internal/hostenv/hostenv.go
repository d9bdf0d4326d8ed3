// Package hostenv classifies the environment vaultrun is running in:
// an interactive developer machine, or a specific CI platform.
package hostenv

import "github.com/vaultrun/vaultrun/env"

// Context is the execution context of the current invocation.
type Context string

const (
	// Local is an interactive developer machine. It is the default when no
	// CI platform signal is present.
	Local Context = "local"

	GitHubActions Context = "github_actions"
	GitLabCI      Context = "gitlab_ci"
	Buildkite     Context = "buildkite"
	CircleCI      Context = "circleci"
	Jenkins       Context = "jenkins"
)

// IsCI reports whether the context is a non-interactive CI platform.
func (c Context) IsCI() bool {
	return c != Local
}

func (c Context) String() string {
	return string(c)
}

// signal pairs a CI platform with the environment variable that
// identifies it. Platforms are checked in order, so the result is
// deterministic even when several signals are set at once. Adding a
// platform means adding one entry here.
type signal struct {
	context Context
	envVar  string

	// boolean markers must carry a truthy value ("GITHUB_ACTIONS=false"
	// is not GitHub Actions); the rest identify by presence alone
	// (JENKINS_URL carries a URL).
	boolean bool
}

var signals = []signal{
	{GitHubActions, "GITHUB_ACTIONS", true},
	{GitLabCI, "GITLAB_CI", true},
	{Buildkite, "BUILDKITE", true},
	{CircleCI, "CIRCLECI", true},
	{Jenkins, "JENKINS_URL", false},
}

// Classify maps an environment to an execution context. It is pure and
// total: with no known CI signal present it returns Local.
func Classify(environ *env.Environment) Context {
	if environ == nil {
		return Local
	}

	for _, s := range signals {
		if s.boolean {
			if environ.GetBool(s.envVar, false) {
				return s.context
			}
			continue
		}
		if environ.Exists(s.envVar) {
			return s.context
		}
	}

	return Local
}
