// Package flagx lets several loaders pick their own flags out of os.Args
// without tripping over each other's definitions.
//
// The server's configuration is layered: the JSON file and the dotenv file
// have to be located before the main flag set is parsed, yet the main flag
// set does not know about -c, -config or -env-file. Each lookup here builds a
// throwaway flag.FlagSet that sees only its own flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the flags named in allowedFlags, together with their
// values, in the order they appear in args.
//
// Two forms are understood:
//
//	-c conf.json      flag and value as separate arguments
//	-config=conf.json flag and value joined by '='
//
// allowedFlags lists names with their leading dash, e.g. []string{"-c"}.
// A token starting with "-" is never consumed as the value of the preceding
// flag, so a dangling flag is kept alone. The result is never nil.
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

// lookupString returns the value of the last occurrence of any of names in
// os.Args, or "" when none is present. names come without the leading dash.
// Parse errors, such as a dangling flag with no value, are swallowed and
// leave the result empty.
func lookupString(names ...string) string {
	var value string

	allowed := make([]string, 0, len(names))
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	for _, n := range names {
		fs.StringVar(&value, n, "", n)
		allowed = append(allowed, "-"+n)
	}
	_ = fs.Parse(FilterArgs(os.Args[1:], allowed))

	return value
}

// JsonConfigFlags returns the JSON config path given with -c or -config.
// When both appear the later one wins. An empty result means no file.
func JsonConfigFlags() string {
	return lookupString("c", "config")
}

// EnvFileFlags returns the dotenv file path given with -env-file. An empty
// result means the default ".env" in the working directory, if present.
func EnvFileFlags() string {
	return lookupString("env-file")
}

// nopWriter discards the usage text flag.FlagSet prints on errors.
type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
