package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the index, or reuse it when it already holds entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			store, report, err := openIndex(cmd.Context(), cfg, embedder, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks in %s (records %d, skipped %d)\n",
				report.Mode, report.Count, store.Path(), report.Records, report.Skipped)
			return nil
		},
	}
}
