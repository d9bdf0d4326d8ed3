// Package cliconfig loads command configuration structs from urfave/cli
// contexts using `cli` struct tags.
//
// It is intended for internal use by vaultrun only.
package cliconfig

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type Loader struct {
	// The context that is passed when using a urfave/cli action
	CLI *cli.Context

	// The struct that the config values will be loaded into
	Config any
}

// Matches "arg:index" (specific non-flag arg) or "arg:*" (all non-flag args).
var argCLINameRE = regexp.MustCompile(`arg:(\d+|\*)`)

// Load populates the config struct from the CLI context: flags and
// environment-variable defaults via the `cli` tag, positional arguments
// via `cli:"arg:N"` or `cli:"arg:*"`, with `validate:"required"`
// enforced after loading.
func (l Loader) Load() error {
	fields, err := reflections.FieldsDeep(l.Config)
	if err != nil {
		return fmt.Errorf("inspecting config fields: %w", err)
	}

	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli")
		if cliName == "" {
			continue
		}

		if err := l.setFieldValueFromCLI(fieldName, cliName); err != nil {
			return fmt.Errorf("setting config field %s: %w", fieldName, err)
		}

		validationRules, _ := reflections.GetFieldTag(l.Config, fieldName, "validate")
		if validationRules == "required" && l.fieldValueIsEmpty(fieldName) {
			label, _ := reflections.GetFieldTag(l.Config, fieldName, "label")
			if label == "" {
				label = cliName
			}
			return l.Errorf("missing %s.", label)
		}
	}

	return nil
}

func (l Loader) setFieldValueFromCLI(fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}

	var value any

	// See if the cli option is using the arg format (arg:1)
	if argMatch := argCLINameRE.FindStringSubmatch(cliName); len(argMatch) > 0 {
		argNum := argMatch[1]

		if argNum == "*" {
			value = []string(l.CLI.Args())
		} else {
			argIndex, err := strconv.Atoi(argNum)
			if err != nil {
				return fmt.Errorf("converting string to int: %w", err)
			}

			// Only set the value if the args are long enough for the
			// position to exist.
			if len(l.CLI.Args()) > argIndex {
				value = l.CLI.Args()[argIndex]
			}
		}
	} else {
		switch fieldKind {
		case reflect.String:
			value = l.CLI.String(cliName)
		case reflect.Slice:
			value = l.CLI.StringSlice(cliName)
		case reflect.Bool:
			value = l.CLI.Bool(cliName)
		case reflect.Int:
			value = l.CLI.Int(cliName)
		default:
			return fmt.Errorf("unable to handle type: %s", fieldKind)
		}
	}

	if value != nil {
		if err := reflections.SetField(l.Config, fieldName, value); err != nil {
			return fmt.Errorf("setting value field %q to %q: %w", fieldName, value, err)
		}
	}

	return nil
}

func (l Loader) Errorf(format string, v ...any) error {
	suffix := fmt.Sprintf(" See: `%s %s --help`", l.CLI.App.Name, l.CLI.Command.Name)

	return fmt.Errorf(format+suffix, v...)
}

func (l Loader) fieldValueIsEmpty(fieldName string) bool {
	value, _ := reflections.GetField(l.Config, fieldName)
	fieldKind, _ := reflections.GetFieldKind(l.Config, fieldName)

	switch fieldKind {
	case reflect.String:
		return value == ""
	case reflect.Slice:
		v := reflect.ValueOf(value)
		return v.Len() == 0
	case reflect.Bool:
		return value == false
	case reflect.Int:
		return value == 0
	default:
		return value == nil
	}
}
