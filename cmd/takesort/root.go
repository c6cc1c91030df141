package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var driverFlag string

	ctx := newCommandContext(&configFlag, &driverFlag)

	rootCmd := &cobra.Command{
		Use:           "takesort",
		Short:         "Group similar audio recordings and file them into dated folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $TAKESORT_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Override the storage driver (local, sqlite, sftp, ftp, dropbox)")

	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newOrganizeCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))

	return rootCmd
}
