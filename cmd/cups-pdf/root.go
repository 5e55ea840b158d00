package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"cupspdf/internal/backend"
	"cupspdf/internal/config"
	"cupspdf/internal/identity"
	"cupspdf/internal/journal"
	"cupspdf/internal/logging"
)

type commandDeps struct {
	resolver identity.Resolver
	options  []backend.Option
}

func defaultDeps() commandDeps {
	return commandDeps{resolver: identity.System{}}
}

func newRootCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "cups-pdf [job-id user title copies options [file]]",
		Short: "CUPS backend that saves print jobs as PDF files in the user's home",
		// cupsd passes positional arguments that may start with a dash.
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), deps, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func run(ctx context.Context, deps commandDeps, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	announce := len(args) == 0

	cfg, cfgPath, _, cfgErr := config.Load("")
	if cfgErr != nil {
		if !announce {
			fmt.Fprintf(stderr, "ERROR: load configuration: %v\n", cfgErr)
			return cfgErr
		}
		cfg = config.MustDefault()
	}
	if announce {
		// Discovery runs as lp; never create or append to the log file then.
		cfg.Logging.File = ""
	}

	logger, err := logging.NewFromConfig(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "WARNING: logging setup failed, using defaults: %v\n", err)
		logger, _ = logging.New(logging.Options{Level: cfg.Logging.Level, Format: logging.FormatCUPS, Writer: stderr})
	}
	if cfgErr != nil {
		logger.Warn("configuration unusable; announcing with defaults",
			logging.String(logging.FieldPath, config.DefaultConfigPath()),
			logging.Error(cfgErr),
		)
	} else {
		logger.Debug("configuration loaded", logging.String(logging.FieldPath, cfgPath))
	}

	opts := append([]backend.Option(nil), deps.options...)
	if !announce && cfg.Journal.Enabled {
		store, err := journal.Open(ctx, cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable; continuing without it",
				logging.String(logging.FieldEventType, "journal_failed"),
				logging.String(logging.FieldPath, cfg.Journal.Path),
				logging.Error(err),
			)
		} else {
			defer closeJournal(logger, store)
			opts = append(opts, backend.WithRecorder(store))
		}
	}

	resolver := deps.resolver
	if resolver == nil {
		resolver = identity.System{}
	}
	return backend.New(cfg, resolver, logger, opts...).Execute(ctx, args, stdin, stdout)
}

func closeJournal(logger *slog.Logger, store *journal.Store) {
	if err := store.Close(); err != nil {
		logger.Warn("journal close failed", logging.Error(err))
	}
}
