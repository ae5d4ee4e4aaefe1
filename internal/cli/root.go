package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/marcelocantos/ish/internal/config"
	"github.com/marcelocantos/ish/internal/logging"
)

// app carries the state of one command-line invocation.
type app struct {
	version    string
	configPath string
	command    string

	fsys   afero.Fs
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	code int
}

// Execute runs the ish command line and returns the process exit status.
func Execute(args []string, version string) int {
	a := &app{
		version: version,
		fsys:    afero.NewOsFs(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	return a.execute(args)
}

func (a *app) execute(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(a.stderr, "ish: %v\n", err)
		if a.code == 0 {
			a.code = 1
		}
	}
	return a.code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ish",
		Short:         "A small interactive shell",
		Long:          `ish reads command lines with pipes and redirections and runs them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShell(cmd.Context(), cmd.Flags().Changed("command"))
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/ish/config.yaml)")
	root.Flags().StringVarP(&a.command, "command", "c", "", "run one command line and exit with its status")

	root.AddCommand(a.mcpCmd(), a.journalCmd(), a.versionCmd())
	return root
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.Load()
	}
	return config.LoadFrom(a.configPath)
}

// newShell loads config and logging and builds a Shell. The returned
// closer flushes the log file.
func (a *app) newShell(adjust func(*config.Config)) (*Shell, io.Closer, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	log = log.With("pid", os.Getpid())
	return NewShell(cfg, a.fsys, log), closer, nil
}

func (a *app) runShell(ctx context.Context, oneShot bool) error {
	sh, closer, err := a.newShell(nil)
	if err != nil {
		return err
	}
	defer closer.Close()

	if oneShot {
		a.code, _ = sh.RunLine(ctx, a.command, a.stdin, a.stdout, a.stderr)
		return nil
	}

	// Children share the terminal's process group and receive ^C
	// themselves; the shell keeps running.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	go func() {
		for range sigc {
			sh.log.Debug("interrupt")
		}
	}()

	src, err := sh.OpenLineSource(a.stdin, a.stdout, a.stderr)
	if err != nil {
		return err
	}
	sh.log.Info("session start", slog.String("version", a.version))
	a.code = sh.Repl(ctx, src, a.stdin, a.stdout, a.stderr)
	sh.log.Info("session end", "code", a.code)
	return nil
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve a command-running tool over the Model Context Protocol on stdio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, closer, err := a.newShell(func(cfg *config.Config) {
				cfg.History.File = ""
				cfg.Color = "never"
			})
			if err != nil {
				return err
			}
			defer closer.Close()
			return serveStdio(sh, a.version)
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ish %s\n", a.version)
		},
	}
}
