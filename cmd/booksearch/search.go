package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/viant/booksearch/search"
)

func newSearchCmd(opts *options) *cobra.Command {
	var (
		k      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Print the chunks closest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return err
			}
			store, _, err := openIndex(cmd.Context(), cfg, embedder, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if !cmd.Flags().Changed("k") {
				k = cfg.DefaultK
			}
			k = search.ClampK(k, cfg.MaxK)
			svc := search.New(embedder, store, search.WithTimeout(cfg.QueryTimeout), search.WithLogger(logger))
			results, err := svc.Search(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return errors.Wrap(err, "search failed")
			}

			if asJSON {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return errors.Wrap(err, "failed to marshal results")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), search.Format(results))
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", search.DefaultK, "number of results (1-10)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}
