package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spaces/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "Spaces is a deduplicating file-hosting service with a local CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSrvCmd(cfg),
		newInfoCmd(cfg, &jsonOutput),
		newCreateCmd(cfg, &jsonOutput),
		newLsCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newUpdateCmd(cfg, &jsonOutput),
		newRmCmd(cfg, &jsonOutput),
		newUploadCmd(cfg, &jsonOutput),
		newFilesCmd(cfg, &jsonOutput),
		newStatCmd(cfg, &jsonOutput),
		newGetCmd(cfg),
		newExportCmd(cfg),
		newConfigCmd(cfg),
	)

	return cmd
}
