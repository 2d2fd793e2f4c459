// Package flagx holds helpers for parsing a subset of command-line flags.
// Each configuration stage parses only the flags it owns, so stages can be
// layered without one FlagSet rejecting flags meant for another.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps only the allowed flags of args, together with their values.
//
// Both "-c conf.json" and "-c=conf.json" (or "--config=conf.json") are
// recognised. A token following an allowed flag is taken as its value unless
// it starts with '-'. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// ConfigFilePath returns the JSON config path given with -c or -config, or ""
// when neither is present. When both appear the last one wins.
func ConfigFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
