package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/charlesng35/fenceadmin/internal/app"
	"github.com/charlesng35/fenceadmin/internal/listview"
	apperrors "github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/logger"
)

var errNotSignedIn = errors.New("not signed in, run `fencectl login` first")

// streams are the terminal handles a command reads from and writes to.
type streams struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	term := streams{in: bufio.NewReader(os.Stdin), out: os.Stdout, err: os.Stderr}
	if err := run(ctx, os.Args[1:], term); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %s\n", apperrors.Message(err, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, term streams) error {
	fs := flag.NewFlagSet("fencectl", flag.ContinueOnError)
	fs.SetOutput(term.err)
	fs.Usage = func() { printUsage(term.err, fs) }

	var configPath, envFile, logLevel string
	var yes bool
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")
	fs.StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before configuration")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	fs.BoolVar(&yes, "yes", false, "Skip confirmation prompts")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	if err := app.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if _, err := app.ApplyRuntimeDefaults(cfg); err != nil {
		return err
	}
	if err := app.ConfigureLogging(logLevel, string(logger.FormatConsole)); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync()

	var confirmer listview.Confirmer = listview.NewPromptConfirmer(term.in, term.err)
	if yes {
		confirmer = listview.AlwaysConfirm
	}

	stack, err := app.NewStack(ctx, cfg, app.StackOptions{
		Confirmer: confirmer,
		Logger:    logger.WithModule("fencectl"),
	})
	if err != nil {
		return err
	}
	defer stack.Close()

	if cmd.signedIn && !stack.Sessions.Authenticated() {
		return errNotSignedIn
	}

	c := &cli{stack: stack, io: term}
	return cmd.run(ctx, c, fs.Args()[1:])
}

func loadConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config path %q: %w", path, err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return app.LoadConfig(path)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: fencectl [flags] <command> [command flags] [args]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nFlags:")
	fs.PrintDefaults()
}
