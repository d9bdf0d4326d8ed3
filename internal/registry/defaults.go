package registry

import "github.com/vaultrun/vaultrun/internal/secretstore"

// defaultProfiles are the tools vaultrun wraps out of the box. Any of them
// can be replaced via the tool config file.
var defaultProfiles = []Profile{
	{
		// git asks for passwords through its askpass callback, so it gets
		// the bridge-file strategy: the destination name is the pointer
		// variable git consults for the callback program.
		Tool:     "git",
		Strategy: StrategyBridgeFile,
		Bindings: []secretstore.Binding{
			{Name: "GIT_ASKPASS", Ref: secretstore.MustParseRef("vault://dev/github/password")},
		},
	},
	{
		Tool:     "gh",
		Strategy: StrategyExport,
		Bindings: []secretstore.Binding{
			{Name: "GH_TOKEN", Ref: secretstore.MustParseRef("vault://dev/github/token")},
		},
	},
	{
		Tool:     "aws",
		Strategy: StrategyExport,
		Bindings: []secretstore.Binding{
			{Name: "AWS_ACCESS_KEY_ID", Ref: secretstore.MustParseRef("vault://infra/aws/access-key-id")},
			{Name: "AWS_SECRET_ACCESS_KEY", Ref: secretstore.MustParseRef("vault://infra/aws/secret-access-key")},
		},
	},
}
