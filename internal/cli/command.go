package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackopsrepl/rdedupe/internal/integration"
	"github.com/blackopsrepl/rdedupe/internal/rdedupe"
	"github.com/blackopsrepl/rdedupe/internal/report"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// options are the flag values of one invocation.
type options struct {
	rdedupe.Options

	// Hash is the digest algorithm name.
	Hash string
	// MinSizeStr is the minimum file size in humanized form.
	MinSizeStr string
	// Report is the by-file CSV path.
	Report string
	// Output is the stdout format (table, json or list).
	Output string
	// Config is the YAML config file path.
	Config string
	// Trace enables span output on stderr.
	Trace bool
	// Debug enables debug logging.
	Debug bool
	// NoProgress disables the progress line.
	NoProgress bool
	// Integration prints the shell integration script.
	Integration bool
}

//nolint:gochecknoglobals // Config constant
var allowedOutputs = []string{"table", "json", "list"}

// Execute runs the CLI with the process arguments.
func (c CLI) Execute() error {
	return c.Command().Execute()
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "rdedupe [flags] [path] [pattern]",
		Short: "Find files with identical contents",
		Long: heredoc.Doc(`
			rdedupe finds files with identical contents and reports how much space they waste.

			Positional Arguments:
			  path                   Directory to scan. Defaults to current directory if not specified.
			  pattern                Only files whose path contains this text are compared.

			Every matching file is hashed in parallel; files sharing a digest form a duplicate group.
			Groups are printed to stdout and the statistics are written to two CSV files:
			the by-file table (File, isDuplicate, Size) and the by-group table
			(Occurrences, TotalSize, PotentialSave, Files) next to it with a '_groups' suffix.

			Files that cannot be read are reported and skipped unless --fail-fast is given.

			Settings may also come from a YAML file (--config or RDEDUPE_CONFIG) and from
			RDEDUPE_* environment variables; flags given on the command line win.

			The '-i' flag prints a zsh function that browses the duplicates with 'fzf'.
		`),
		Version:       c.version,
		Args:          cobra.MaximumNArgs(2), //nolint:mnd // path and pattern
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args, &opts)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.Flags()
	flags.SortFlags = false

	flags.IntVarP(&opts.Workers, "workers", "w", 0, "Number of hashing workers (0=number of CPUs)")
	flags.StringVar(&opts.Hash, "hash", string(rdedupe.BLAKE3), fmt.Sprintf("Digest algorithm: one of %v", rdedupe.Algorithms))
	flags.StringVarP(&opts.Report, "report", "r", report.DefaultPath, "By-file CSV report path")
	flags.StringVarP(&opts.Output, "output", "o", "table", "Output format: table, json or list")
	flags.StringSliceVarP(&opts.Excludes, "exclude", "e", nil, "Regex patterns to exclude")
	flags.StringVar(&opts.MinSizeStr, "min-size", "0B", "Minimum file size (e.g., 1KB)")
	flags.IntVarP(&opts.Depth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.BoolVar(&opts.FailFast, "fail-fast", false, "Abort on the first file that cannot be read")
	flags.StringVar(&opts.Config, "config", "", "YAML config file")
	flags.BoolVar(&opts.Trace, "trace", false, "Print trace spans to stderr")
	flags.BoolVar(&opts.Debug, "debug", false, "Enable debug output")
	flags.BoolVar(&opts.NoProgress, "no-progress", false, "Disable the progress line")
	flags.BoolVarP(&opts.Integration, "init", "i", false, "Output init script for shell usage")

	return cmd
}

func (c CLI) run(cmd *cobra.Command, args []string, opts *options) error {
	if opts.Integration {
		rendered, err := integration.Render()
		if err != nil {
			return fmt.Errorf("rendering integration script: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), rendered)

		return nil
	}

	config, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}

	config.apply(opts, cmd.Flags())

	if !slices.Contains(allowedOutputs, opts.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", opts.Output, allowedOutputs)
	}

	if opts.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if opts.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	if opts.Algorithm, err = rdedupe.ParseAlgorithm(opts.Hash); err != nil {
		return err
	}

	// Parse minSize string to bytes
	if opts.MinSizeStr != "" {
		size, err := humanize.ParseBytes(opts.MinSizeStr)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}

		opts.MinSize = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	opts.Path = "."
	if len(args) > 0 {
		opts.Path = args[0]
	}

	if len(args) > 1 {
		opts.Pattern = args[1]
	}

	return logic(cmd, c.version, *opts)
}
