package cli

import (
	"flag"
	"io"
	"strings"
)

const versionString = "1.0.0"
const defaultConfigPath = "modscan.toml"

// listFlag collects a repeatable flag. Each value may also be a comma list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type cliOptions struct {
	configPath string
	envFile    string
	format     string
	outputPath string
	include    listFlag
	exclude    listFlag
	ignore     listFlag
	seeds      listFlag
	deep       bool
	forceLoad  bool
	watch      bool
	history    int
	verbose    bool
	version    bool
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("modscan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Load environment overrides from this file when it exists")
	fs.StringVar(&opts.format, "format", "", "Output format: text, json or markdown (overrides [output].format)")
	fs.StringVar(&opts.outputPath, "out", "", "Write the report to this path instead of stdout")
	fs.Var(&opts.include, "include", "Include prefix (repeatable)")
	fs.Var(&opts.exclude, "exclude", "Exclude prefix (repeatable)")
	fs.Var(&opts.ignore, "ignore", "Ignore substring (repeatable)")
	fs.Var(&opts.seeds, "seed", "Seed module identity (repeatable)")
	fs.BoolVar(&opts.deep, "deep", false, "Follow module references transitively")
	fs.BoolVar(&opts.forceLoad, "force-load", false, "Load every selected module into the registry")
	fs.BoolVar(&opts.watch, "watch", false, "Rescan whenever manifest files change")
	fs.IntVar(&opts.history, "history", 0, "Print the last N recorded scans and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	return opts, nil
}
