package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idilsaglam/tada/internal/api"
	"github.com/idilsaglam/tada/internal/auth"
	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/logging"
	"github.com/idilsaglam/tada/internal/todolist"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Root flags (apply to every subcommand)
	fs := flag.NewFlagSet("tada", flag.ContinueOnError)
	cfg, rest, err := config.Load(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	theme, err := ui.ThemeByName(cfg.Theme)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	logger, closer, err := logging.New(logging.Options{
		Path:      cfg.LogFile,
		Level:     cfg.LogLevel,
		Formatter: cfg.LogFormat,
		Prefix:    "tada",
	})
	if err != nil {
		theme.Fail(os.Stderr, "log: "+err.Error())
		return 1
	}
	defer closer.Close()

	store := auth.Store{Dir: cfg.Dir}
	token, err := store.Token()
	if err != nil {
		logger.Warn("ignoring stored credentials", "err", err)
	}

	client, err := api.New(api.Options{
		BaseURL: cfg.Server,
		Token:   token,
		Timeout: cfg.Timeout.Duration,
		Logger:  logger,
	})
	if err != nil {
		theme.Fail(os.Stderr, err.Error())
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting", "server", cfg.Server, "args", rest)
	r := &cli.Runner{
		Config: cfg,
		Ctrl:   todolist.New(client, logger),
		Auth:   store,
		Theme:  theme,
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	code := r.Run(ctx, rest)
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
