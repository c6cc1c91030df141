package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/takesort/internal/adapters/localfs"
	"github.com/ewilliams-labs/takesort/internal/adapters/sqlite"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SQLite catalog backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newCatalogImportCommand(ctx))
	return cmd
}

func newCatalogImportCommand(ctx *commandContext) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Record a local directory tree in the SQLite catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(dbPath) == "" {
				dbPath = cfg.Storage.SQLite.Path
			}

			src, err := localfs.NewAdapter(args[0])
			if err != nil {
				return err
			}
			catalog, err := sqlite.NewAdapter(dbPath)
			if err != nil {
				return err
			}
			defer catalog.Close()

			n, err := catalog.Import(cmd.Context(), src, "/")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d files from %s into %s\n", n, src.Root(), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog database path (default: storage.sqlite.path)")
	return cmd
}
