package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soochol/hydrahunt/internal/extract"
)

// readSource loads a document from disk and extracts its text.
func readSource(cmd *cobra.Command, configPath, path, mediaType string) (extract.Result, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return extract.Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	res, err := newExtractor(cfg, logger).Extract(cmd.Context(), extract.Source{
		Filename:  filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
	})
	if err != nil {
		return extract.Result{}, fmt.Errorf("file empty or unreadable, try again (%s)", extract.KindOf(err))
	}
	return res, nil
}

func newExtractCmd(configPath *string) *cobra.Command {
	var (
		mediaType string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Print the normalized text of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readSource(cmd, *configPath, args[0], mediaType)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	cmd.Flags().StringVar(&mediaType, "media-type", "", "Declared media type, used when the extension is unknown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print text, format and page count as JSON")
	return cmd
}
