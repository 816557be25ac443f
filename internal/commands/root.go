// Package commands provides CLI commands for projectbrain.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogo/projectbrain/internal/config"
	"github.com/diogo/projectbrain/internal/logging"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are the persistent flags shared by every subcommand
type globalFlags struct {
	apiURL  string
	timeout int
	verbose bool
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	var (
		flags   globalFlags
		askOpts askOptions
	)

	cmd := &cobra.Command{
		Use:   "projectbrain [question]",
		Short: "CLI for the Project Brain construction document assistant",
		Long: `projectbrain talks to a Project Brain backend that answers questions about
indexed construction documents and extracts tables from them.

Questions mentioning "list" or "schedule" are sent to the extraction
capability and come back as tables; everything else is answered as text.

Examples:
  projectbrain chat                             Start interactive chat
  projectbrain "What is the fire rating of A2?" Ask a single question
  projectbrain ask "List the door schedule"     Extract a table
  projectbrain -f question.md                   Read the question from file
  cat question.md | projectbrain                Read the question from stdin
  projectbrain ingest                           Re-index the documents
  projectbrain mock-server                      Run an offline demo backend`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return deps.setup(cmd, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = deps.Logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "projectbrain %s (built %s)\n", Version, BuildTime)
				return nil
			}

			text, err := deps.readInput(args, askOpts.file)
			if err != nil {
				return err
			}
			// No input - show help
			if text == "" {
				return cmd.Help()
			}
			return runAsk(cmd, deps, text, askOpts)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Backend base URL (default from config, "+config.EnvAPIURL+")")
	cmd.PersistentFlags().IntVar(&flags.timeout, "timeout", 0, "Per-request timeout in seconds")
	cmd.PersistentFlags().BoolVar(&flags.verbose, "verbose", false, "Log debug output to stderr")
	addAskFlags(cmd, &askOpts)
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		NewAskCmd(deps),
		NewChatCmd(deps),
		NewIngestCmd(deps),
		NewStatusCmd(deps),
		NewConfigCmd(deps),
		NewMockServerCmd(deps),
	)
	return cmd
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Error"))
		stop()
		os.Exit(1)
	}
}

// setup loads .env, the config file and environment overrides, applies the
// persistent flags and builds the logger.
func (d *Dependencies) setup(cmd *cobra.Command, flags globalFlags) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = flags.apiURL
	}
	if cmd.Flags().Changed("timeout") {
		if flags.timeout < 1 {
			return fmt.Errorf("--timeout must be at least 1 second, got %d", flags.timeout)
		}
		cfg.TimeoutSeconds = flags.timeout
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flags.verbose
	}

	logger, err := logging.New(loggingOptions(cmd, cfg))
	if err != nil {
		return err
	}

	d.Config = cfg
	d.Logger = logger
	return nil
}

// loggingOptions picks log outputs per command: long-running commands log to
// the configured file, one-shot commands only to stderr under --verbose.
func loggingOptions(cmd *cobra.Command, cfg config.Config) logging.Options {
	switch cmd.Name() {
	case "chat":
		return logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile, Quiet: true}
	case "mock-server":
		return logging.Options{Verbose: cfg.Verbose, File: cfg.LogFile}
	default:
		return logging.Options{Verbose: cfg.Verbose}
	}
}

// readInput resolves the question from a file, the arguments or piped
// stdin, in that order. It returns "" when there is none.
func (d *Dependencies) readInput(args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if len(args) > 0 {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}

	if d.Stdin != nil && d.StdinPiped != nil && d.StdinPiped() {
		data, err := io.ReadAll(d.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return "", nil
}

func stdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
