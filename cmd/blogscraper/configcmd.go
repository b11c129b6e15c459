package main

import (
	"fmt"

	"github.com/pevans/blogscraper/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Long: `Show the configuration after applying defaults, the config file, the
dotenv file, environment variables and flags. Settings stored through the
API are listed separately; they apply to API-triggered runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.NewSettingsStore(a.cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open settings store: %w", err)
			}
			defer settings.Close()

			stored, err := settings.GetSettings(cmd.Context())
			if err != nil {
				return err
			}

			printConfig(cmd.OutOrStdout(), a.cfg, stored)
			return nil
		},
	})

	return cmd
}
