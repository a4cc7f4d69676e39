// Package cli wires the deadlock commands together.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/BinToss/DeadLock/internal/config"
	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/locker"
	"github.com/BinToss/DeadLock/internal/logging"
	"github.com/BinToss/DeadLock/internal/proc"
	"github.com/BinToss/DeadLock/internal/process"
)

// Exit statuses of the deadlock binary.
const (
	ExitOK     = 0
	ExitError  = 1
	ExitUsage  = 2
	ExitLocked = 3
)

// BuildInfo is stamped into the binary with -ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// exitError carries a non-zero exit status out of a command without
// printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// app is the state shared by all commands of one invocation.
type app struct {
	info   BuildInfo
	cfg    *config.Config
	logger *logging.Logger

	// newResolver builds the scanner; replaced in tests.
	newResolver func(a *app) *locker.Resolver
	// isTerminal reports whether w is an interactive terminal.
	isTerminal func(w io.Writer) bool
}

func newApp(info BuildInfo) *app {
	return &app{
		info:        info,
		newResolver: defaultResolver,
		isTerminal:  isTerminal,
	}
}

func defaultResolver(a *app) *locker.Resolver {
	opts := proc.Options{
		QueryTimeout: a.cfg.Scan.QueryTimeout,
		IncludeMaps:  a.cfg.Scan.IncludeMaps,
		IncludeCwd:   a.cfg.Scan.IncludeCwd,
	}
	identity := process.Default(a.cfg.Identity.Sentinel, a.cfg.Identity.InventoryTimeout, a.logger)
	r := locker.New(opts, identity, a.logger)
	r.MaxFiles = a.cfg.Scan.MaxFiles
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// colorEnabled resolves output.color against the writer and NO_COLOR.
func (a *app) colorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	switch a.cfg.Output.Color {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return a.isTerminal(w)
}

// Execute runs the command line and returns the process exit status.
func Execute(info BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(newApp(info))
	return run(ctx, root)
}

func run(ctx context.Context, root *cobra.Command) int {
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	if errors.Is(err, errors.ErrInvalidConfig) {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "deadlock",
		Short: "Find the processes that hold a file or folder open",
		Long: `deadlock reports which running processes hold open handles to a file
or to anything inside a folder, so you can tell what is keeping it locked.

It only reports: no handle is ever closed and no process is ever stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "config file (default is $XDG_CONFIG_HOME/deadlock/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-file", "", "write logs to this file instead of stderr")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.file", root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(
		newScanCmd(a),
		newWatchCmd(a),
		newUICmd(a),
		newVersionCmd(a),
	)
	return root
}

// init loads configuration and opens the logger.
func (a *app) init(cmd *cobra.Command) error {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.SetEnvPrefix("DEADLOCK")
	// DEADLOCK_SCAN_QUERY_TIMEOUT for scan.query_timeout
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("configuration loaded", "file", viper.ConfigFileUsed(), "command", cmd.Name())
	return nil
}
