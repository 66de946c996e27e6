// Package cli implements the patentctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/patent-normalizer/internal/bootstrap"
	"github.com/turtacn/patent-normalizer/internal/config"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patent-normalizer/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries the loaded configuration through the command tree.
// The backends are connected on first use of Runtime.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	runtime *bootstrap.Runtime
}

// Runtime connects the backends enabled in the configuration.  The result
// is cached for the life of the command.
func (c *CLIContext) Runtime(ctx context.Context) (*bootstrap.Runtime, error) {
	if c.runtime != nil {
		return c.runtime, nil
	}
	rt, err := bootstrap.Build(ctx, c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.runtime = rt
	return rt, nil
}

// Close releases the runtime, if one was built.
func (c *CLIContext) Close() {
	if c.runtime != nil {
		c.runtime.Close()
		c.runtime = nil
	}
}

// NewRootCommand creates the root command with its global flags and every
// subcommand.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "patentctl",
		Short: "Normalize USPTO bulk patent data",
		Long: "patentctl parses USPTO bulk files (Greenbook APS, SGML, PAP XML, XML v4 and\n" +
			"the CPC master classification file) into one normalized document model and\n" +
			"writes the results to the configured sinks.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./patentnorm.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 0, "overall deadline; 0 runs until done or interrupted")

	cmd.AddCommand(
		newParseCmd(),
		newDetectCmd(),
		newIngestCmd(),
		newWatchCmd(),
		newClassifyCmd(),
		newDocIDCmd(),
		newLedgerCmd(),
		newMigrateCmd(),
		newServeCmd(),
		newWorkerCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	if opts.NoColor {
		color.NoColor = true
	}
	switch strings.ToLower(opts.OutputFormat) {
	case "text", "json", "table":
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown output format %q", opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return err
	}
	logger, err := initLogger(cfg, opts)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
	}
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	cmd.SetContext(context.WithValue(parent, cliContextKey{}, cliCtx))
	return nil
}

// initConfig loads, in order: --config, the first file found on the search
// path, or the environment alone.  A .env file in the working directory is
// merged into the environment first.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./patentnorm.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".patentnorm", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/patentnorm/config.yaml")

	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// initLogger logs to stderr so stdout carries only command output.
func initLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	lc := cfg.Log
	if opts.LogLevel != "" {
		lc.Level = opts.LogLevel
	}
	if lc.Level == "" {
		lc.Level = "warn"
	}
	lc.Format = "console"
	lc.OutputPaths = []string{"stderr"}
	lc.ErrorOutputPaths = []string{"stderr"}
	return logging.NewLogger(lc)
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeValidation, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// commandContext is canceled on SIGINT/SIGTERM and after --timeout.
func commandContext(cmd *cobra.Command, c *CLIContext) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if c.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	return ctx, func() { cancel(); stop() }
}

// Execute is the main entry point of the CLI.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Output
// ─────────────────────────────────────────────────────────────────────────────

// tableProvider is implemented by results that render as a table.
type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes data in the selected output format.  Text falls back
// to the table rendering for table providers.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "text"
	if c, err := GetCLIContext(cmd); err == nil {
		format = c.OutputFormat
	}
	switch format {
	case "json":
		return printJSON(cmd, data)
	default:
		if tp, ok := data.(tableProvider); ok {
			return printTable(cmd, tp)
		}
		return printText(cmd, data)
	}
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func printText(cmd *cobra.Command, data interface{}) error {
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", v)
	}
	return nil
}

func printTable(cmd *cobra.Command, tp tableProvider) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header(tp.TableHeaders())
	for _, row := range tp.TableRows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// PrintError writes err to stderr, with its code when it has one.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s [%s] %s\n", color.RedString("Error:"), code, err.Error())
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

// colorizeStatus colors run and ledger statuses.
func colorizeStatus(status string) string {
	switch status {
	case "ok", "completed", "healthy":
		return color.GreenString(status)
	case "skipped", "running":
		return color.YellowString(status)
	case "failed":
		return color.RedString(status)
	default:
		return status
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

//Personal.AI order the ending
