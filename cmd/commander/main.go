package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msaeedsaeedi/commander/internal/app"
	"github.com/msaeedsaeedi/commander/internal/config"
	"github.com/msaeedsaeedi/commander/internal/domain"
	"github.com/msaeedsaeedi/commander/internal/logging"
)

const version = "0.1.0"

type options struct {
	file           string
	itemsFile      string
	items          int
	nodeName       string
	runOnce        bool
	hideWindow     bool
	execMode       string
	continueOnFail bool
	split          string
	json           bool
	raw            bool
	tui            bool
	logLevel       string
	logDir         string
	verbose        bool
}

func parseCommand(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	return strings.Join(args, " ")
}

// buildNodeConfig layers explicitly set flags over the node file (if any)
// over the node defaults.
func buildNodeConfig(cmd *cobra.Command, args []string, opts *options) (*domain.NodeConfig, []domain.Item, error) {
	cfg := config.Defaults()
	var items []domain.Item

	if opts.file != "" {
		nf, err := config.Load(opts.file)
		if err != nil {
			return nil, nil, err
		}
		cfg = nf.NodeConfig()
		items = nf.Items
	}

	flags := cmd.Flags()
	if command := parseCommand(args); command != "" {
		cfg.Command = command
	}
	if flags.Changed("node-name") {
		cfg.Name = opts.nodeName
	}
	if flags.Changed("run-once") {
		cfg.RunOnce = opts.runOnce
	}
	if flags.Changed("hide-window") {
		cfg.HideWindow = opts.hideWindow
	}
	if flags.Changed("exec-mode") {
		cfg.ExecMode = domain.ExecMode(opts.execMode)
	}
	if flags.Changed("continue-on-fail") {
		cfg.ContinueOnFail = opts.continueOnFail
	}
	if flags.Changed("split") {
		cfg.Split = domain.SplitMode(opts.split)
	}

	switch {
	case opts.json:
		cfg.Format = domain.FormatJSON
	case opts.raw:
		cfg.Format = domain.FormatRaw
	case opts.tui:
		cfg.Format = domain.FormatTUI
	default:
		cfg.Format = domain.FormatJSON
	}

	switch {
	case opts.itemsFile != "":
		loaded, err := config.LoadItems(opts.itemsFile)
		if err != nil {
			return nil, nil, err
		}
		items = loaded
	case flags.Changed("items") || items == nil:
		if opts.items < 0 {
			return nil, nil, fmt.Errorf("items must be zero or more")
		}
		items = config.BlankItems(opts.items)
	}

	return cfg, items, nil
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	log, err := logging.New(logging.Options{Level: opts.logLevel, Verbose: opts.verbose, Dir: opts.logDir})
	if err != nil {
		return err
	}

	cfg, items, err := buildNodeConfig(cmd, args, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := app.NewOrchestrator(log)
	if _, err := orchestrator.Execute(ctx, cfg, items); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n\nExecution cancelled")
			return nil
		}
		return err
	}

	return nil
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commander [flags] -- <command>",
		Short: "Execute a shell command for a list of workflow items",
		Long: "commander - run a shell command on the host once for all input items or once per item,\n" +
			"and emit stdout/stderr per item the way a workflow engine consumes it.\n\n" +
			"Arguments after -- are joined with single spaces, so shell quoting is lost;\n" +
			"put commands that need quotes in the node file (--file).\n" +
			"A command starting with = is rendered per item as a Go template, e.g. =echo {{ .name }}.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "Node file (YAML) with parameters and input items")
	flags.StringVar(&opts.itemsFile, "items-file", "", "JSON array of input items")
	flags.IntVarP(&opts.items, "items", "n", 1, "Number of blank input items")
	flags.StringVar(&opts.nodeName, "node-name", domain.DefaultNodeName, "Node name reported in errors")
	flags.BoolVar(&opts.runOnce, "run-once", true, "Execute the command once for all items instead of once per item")
	flags.BoolVar(&opts.hideWindow, "hide-window", false, "Hide the console window of the command (Windows only)")
	flags.StringVarP(&opts.execMode, "exec-mode", "m", string(domain.DefaultExecMode), "Execution mode (exec|spawn)")
	flags.BoolVar(&opts.continueOnFail, "continue-on-fail", false, "Record failures as error items instead of aborting")
	flags.StringVar(&opts.split, "split", string(domain.DefaultSplit), "Argument splitting in spawn mode (literal|shell)")
	flags.BoolVar(&opts.json, "json", false, "Output items as JSON (default)")
	flags.BoolVar(&opts.raw, "raw", false, "Stream command output and print a status line per execution")
	flags.BoolVar(&opts.tui, "tui", false, "Interactive terminal view")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace|debug|info|warn|error)")
	flags.StringVar(&opts.logDir, "log-dir", "", "Write rotated log files to this directory instead of stderr")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	cmd.MarkFlagsMutuallyExclusive("json", "raw", "tui")
	cmd.MarkFlagsMutuallyExclusive("items", "items-file")
	cmd.Version = version

	return cmd
}

func main() {
	opts := &options{}
	rootCmd := newRootCmd(opts)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var opErr *domain.OperationError
		if !errors.As(err, &opErr) {
			fmt.Fprintln(os.Stderr)
			rootCmd.Usage()
		}
		os.Exit(1)
	}
}
