// Package main provides the hydrahunt command: the resume import server and
// local extraction tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "hydrahunt",
		Short:         "Resume import service",
		Long:          "hydrahunt extracts text from uploaded resumes (PDF, DOCX, XLSX, HTML, plain text) and parses it into a structured profile.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: ./config.yaml if present)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newExtractCmd(&configPath))
	root.AddCommand(newParseCmd(&configPath))
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
