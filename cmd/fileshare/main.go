package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pavel-fokin/fileshare/internal/config"
	"github.com/pavel-fokin/fileshare/internal/fileshare"
	"github.com/pavel-fokin/fileshare/internal/fs"
	"github.com/pavel-fokin/fileshare/internal/server"
	"github.com/pavel-fokin/fileshare/internal/sqlite"
)

func main() {
	// Initialize structured logger with JSON handler
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fileshare",
		Short:        "Local fileshare records for recorded films and screenshots",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), listCmd(), showCmd(), reindexCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the fileshare HTTP API and asset downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			if n, err := svc.Reindex(); err != nil {
				slog.Warn("Failed to rebuild catalog", "error", err)
			} else {
				slog.Info("Catalog ready", "records", n)
			}

			srv := server.New(cfg, svc)

			slog.Info("Starting server", "addr", cfg.Addr)
			return srv.ListenAndServe()
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the ids of the films available locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := svc.List()
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a described record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id %q: %w", args[0], err)
			}

			_, svc, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.Get(id, download)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "include the download URL instead of the tags")
	return cmd
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the record catalog from the fileshare directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.Reindex()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d records catalogued\n", n)
			return nil
		},
	}
}

func setup() (*config.Config, *fileshare.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	repo, err := sqlite.NewRepository(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize catalog: %w", err)
	}

	storage := fs.NewStorage(cfg.DataDir)
	resolver := fileshare.NewResolver(cfg.Host, cfg.UserID)
	svc := fileshare.NewService(storage, resolver, repo)

	return cfg, svc, func() { repo.Close() }, nil
}
