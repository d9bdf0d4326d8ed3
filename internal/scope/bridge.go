package scope

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"text/template"

	"github.com/buildkite/shellwords"
	"github.com/google/uuid"
	"github.com/vaultrun/vaultrun/internal/tempfile"
)

// A bridge artifact's sole behaviour is to print the embedded value and
// exit 0. Tools like git run it through their askpass callback instead of
// reading the environment.
const (
	posixBridgeScript = `#!/bin/sh
printf '%s\n' {{.QuotedValue}}
`

	batchBridgeScript = `@ECHO OFF
ECHO {{.Value}}
`
)

var (
	posixBridgeTmpl = template.Must(template.New("bridge").Parse(posixBridgeScript))
	batchBridgeTmpl = template.Must(template.New("bridge-batch").Parse(batchBridgeScript))
)

type bridgeTemplateInput struct {
	QuotedValue string
	Value       string
}

// writeBridgeArtifact creates the single-use executable, restricted to
// the invoking user, and returns its path.
func writeBridgeArtifact(dir, value string) (string, error) {
	name := fmt.Sprintf("vaultrun-bridge-%s", uuid.New().String())
	opts := []tempfile.Opts{
		tempfile.WithDir(dir),
		tempfile.WithName(name),
		tempfile.WithPerms(0o700),
	}
	if runtime.GOOS == "windows" {
		// Batch scripts only execute with their extension intact.
		opts = []tempfile.Opts{
			tempfile.WithDir(dir),
			tempfile.WithName(name + ".bat"),
			tempfile.KeepingExtension(),
			tempfile.WithPerms(0o700),
		}
	}

	f, err := tempfile.New(opts...)
	if err != nil {
		return "", fmt.Errorf("creating bridge artifact: %w", err)
	}

	tmpl, input := posixBridgeTmpl, bridgeTemplateInput{QuotedValue: shellwords.Quote(value)}
	if runtime.GOOS == "windows" {
		tmpl, input = batchBridgeTmpl, bridgeTemplateInput{Value: value}
	}

	if err := tmpl.Execute(f, input); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing bridge artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing bridge artifact: %w", err)
	}

	return f.Name(), nil
}

// removeBridgeArtifact deletes the artifact. It is idempotent: a second
// call finds nothing and succeeds, so overlapping teardown runs cannot
// fail each other.
func removeBridgeArtifact(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
