package cli

import "flag"

const defaultConfigPath = "./archlens.toml"

type cliOptions struct {
	configPath   string
	root         string
	preset       string
	threshold    float64
	rebuild      bool
	watch        bool
	failOnErrors bool
	noCache      bool
	includeTests bool
	fitness      bool
	patterns     bool
	trendLimit   int
	outDir       string
	annotateDOT  bool
	metricsAddr  string
	verbose      bool
	quiet        bool
	version      bool
	args         []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("archlens", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.root, "root", "", "Project root to analyze (overrides config)")
	fs.StringVar(&opts.preset, "preset", "", "Fitness preset: balanced, strict, lenient, startup, security_focused")
	fs.Float64Var(&opts.threshold, "threshold", 0, "Pattern confidence threshold (0..1, overrides config)")
	fs.BoolVar(&opts.rebuild, "rebuild", false, "Force a full rescan even when the cached analysis is fresh")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and re-analyze on file changes")
	fs.BoolVar(&opts.failOnErrors, "fail", false, "Exit with code 2 when fitness has ERROR violations")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Disable the analysis snapshot cache")
	fs.BoolVar(&opts.includeTests, "include-tests", false, "Include test files in analysis (Go: _test.go, Python: test_*.py)")
	fs.BoolVar(&opts.fitness, "fitness", true, "Run the fitness policy engine")
	fs.BoolVar(&opts.patterns, "patterns", true, "Run architecture pattern detection")
	fs.IntVar(&opts.trendLimit, "trend", 0, "Include the last N stored runs in the report (requires history)")
	fs.StringVar(&opts.outDir, "out", "", "Output directory for report files (overrides config)")
	fs.BoolVar(&opts.annotateDOT, "annotate", false, "Annotate DOT nodes with coupling metrics")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Expose /metrics and /health on this address (overrides config)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.quiet, "quiet", false, "Log errors only")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
