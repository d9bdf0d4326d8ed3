package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultrun/vaultrun/internal/secretstore"
)

func TestBuiltInProfilesResolve(t *testing.T) {
	r := New()

	git, err := r.Resolve("git")
	require.NoError(t, err)
	assert.Equal(t, StrategyBridgeFile, git.Strategy)
	require.Len(t, git.Bindings, 1)
	assert.Equal(t, "GIT_ASKPASS", git.Bindings[0].Name)

	aws, err := r.Resolve("aws")
	require.NoError(t, err)
	assert.Equal(t, StrategyExport, aws.Strategy)
	assert.Len(t, aws.Bindings, 2)
}

func TestResolveUnknownTool(t *testing.T) {
	r := New()

	_, err := r.Resolve("terraform")
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "terraform")
}

func TestLoadJSONRegistersAndOverrides(t *testing.T) {
	r := New()

	err := r.LoadJSON([]byte(`[
		{
			"tool": "psql",
			"strategy": "export",
			"bindings": [{"env": "PGPASSWORD", "ref": "vault://db/primary/password"}]
		},
		{
			"tool": "git",
			"strategy": "bridge-file",
			"bindings": [{"env": "GIT_ASKPASS", "ref": "vault://work/gitlab/password"}]
		}
	]`))
	require.NoError(t, err)

	psql, err := r.Resolve("psql")
	require.NoError(t, err)

	want := Profile{
		Tool:     "psql",
		Strategy: StrategyExport,
		Bindings: []secretstore.Binding{{
			Name:   "PGPASSWORD",
			Ref:    secretstore.Ref{Vault: "db", Item: "primary", Field: "password"},
			RawRef: "vault://db/primary/password",
		}},
	}
	if diff := cmp.Diff(want, psql); diff != "" {
		t.Errorf("resolved psql profile diff (-want +got):\n%s", diff)
	}

	git, err := r.Resolve("git")
	require.NoError(t, err)
	assert.Equal(t, "work", git.Bindings[0].Ref.Vault)

	assert.Equal(t, []string{"aws", "gh", "git", "psql"}, r.Tools())
}

func TestLoadJSONRejectsDuplicateDestinations(t *testing.T) {
	r := New()

	err := r.LoadJSON([]byte(`[{
		"tool": "doubled",
		"strategy": "export",
		"bindings": [
			{"env": "TOKEN", "ref": "vault://a/b/c"},
			{"env": "TOKEN", "ref": "vault://a/b/d"}
		]
	}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate destination name "TOKEN"`)
}

func TestLoadJSONRejectsBridgeFileWithMultipleBindings(t *testing.T) {
	r := New()

	err := r.LoadJSON([]byte(`[{
		"tool": "svn",
		"strategy": "bridge-file",
		"bindings": [
			{"env": "A", "ref": "vault://a/b/c"},
			{"env": "B", "ref": "vault://a/b/d"}
		]
	}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one binding")
}

func TestLoadJSONRejectsBadRefsAndStrategies(t *testing.T) {
	r := New()

	err := r.LoadJSON([]byte(`[{
		"tool": "bad",
		"strategy": "export",
		"bindings": [{"env": "X", "ref": "not-a-ref"}]
	}]`))
	assert.Error(t, err)

	err = r.LoadJSON([]byte(`[{
		"tool": "bad",
		"strategy": "teleport",
		"bindings": [{"env": "X", "ref": "vault://a/b/c"}]
	}]`))
	assert.Error(t, err)
}
