// Package cmd contains the CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "navigator",
	Short: "Learning Navigator - retrieval-augmented course assistant",
	Long: `Navigator ingests course documents into a vector index and answers
questions over them with retrieval-augmented generation.

Run "navigator serve" to start the HTTP API, or "navigator ingest" to
index a document from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
