// Package config supplies flag defaults from a TOML file.
//
// Top-level keys match global flags by name; a table named after a command
// supplies that command's flags:
//
//	db = "~/habits/habitual.db"
//	debug = true
//
//	[serve]
//	addr = "0.0.0.0:8765"
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitual/internal/constants"
)

const flagName = "config-file"

// TOML is a kong.ConfigurationLoader for TOML documents
func TOML(r io.Reader) (kong.Resolver, error) {
	values := map[string]interface{}{}
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("invalid TOML config: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		if parent != nil && parent.Command != nil {
			if table, ok := values[parent.Command.Name].(map[string]interface{}); ok {
				if v, ok := lookup(table, flag.Name); ok {
					return v, nil
				}
			}
		}
		v, _ := lookup(values, flag.Name)
		return v, nil
	}
	return f, nil
}

// lookup accepts both dashed and underscored key spellings
func lookup(table map[string]interface{}, name string) (interface{}, bool) {
	if v, ok := table[name]; ok {
		return v, true
	}
	v, ok := table[strings.ReplaceAll(name, "-", "_")]
	return v, ok
}

// Path finds the --config-file value in args before kong parses them,
// falling back to the default location.
func Path(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--"+flagName+"="); ok {
			return v
		}
		if arg == "--"+flagName && i+1 < len(args) {
			return args[i+1]
		}
	}
	return constants.DefaultConfigFile
}
