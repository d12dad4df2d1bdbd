package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newParseCmd(configPath *string) *cobra.Command {
	var (
		mediaType     string
		heuristicOnly bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract a document and print the parsed resume as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readSource(cmd, *configPath, args[0], mediaType)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			parser, err := newParser(cfg, newLogger(cfg.Log, cmd.ErrOrStderr()), heuristicOnly)
			if err != nil {
				return err
			}
			result := parser.Parse(cmd.Context(), res.Text)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&mediaType, "media-type", "", "Declared media type, used when the extension is unknown")
	cmd.Flags().BoolVar(&heuristicOnly, "heuristic", false, "Skip the completion provider")
	return cmd
}
