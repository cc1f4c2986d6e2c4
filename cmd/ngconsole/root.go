package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:               "ngconsole",
	Short:             "ngconsole serves the pipelines, connectors and deployment console.",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: prepareCommand,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(
		structuredLogging(serveCmd),
		structuredLogging(migrateCmd),
		checkBackendCmd,
	)
}
