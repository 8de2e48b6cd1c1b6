package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"roster-search/internal/search/hierarchy"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "roster-search",
		Short: "Search and filter the creator and brand rosters",
		Long: `roster-search filters the creator or brand roster with a saved query.
Each run restores the query for the chosen surface, applies any filter flags,
prints the current page and saves the query for the next run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is ./configs/config.yaml)")

	root.AddCommand(newSearchCmd(&configPath), newLocationsCmd(&configPath))
	return root
}

func newSearchCmd(configPath *string) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Render the current page of a search surface",
		Example: `  roster-search search -q momo --country Nepal --province Bagmati
  roster-search search --surface brands --followers "10K - 100K" -o table
  roster-search search --near-me --near-me-radius 25`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return f.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), *configPath, f, cmd.Flags(), cmd.OutOrStdout())
		},
	}
	addSearchFlags(cmd.Flags(), f)
	return cmd
}

func newLocationsCmd(configPath *string) *cobra.Command {
	var country, province string
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List the selectable countries, provinces or districts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			h, err := loadHierarchy(cfg.Search)
			if err != nil {
				return err
			}
			return listLocations(cmd.OutOrStdout(), h, country, province)
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "list the provinces of this country")
	cmd.Flags().StringVar(&province, "province", "", "list the districts of this province")
	return cmd
}

func listLocations(w io.Writer, h *hierarchy.Hierarchy, country, province string) error {
	level, parent := hierarchy.LevelCountry, ""
	switch {
	case province != "":
		level, parent = hierarchy.LevelDistrict, province
	case country != "":
		level, parent = hierarchy.LevelProvince, country
	}
	for _, v := range h.ChildrenOf(level, parent) {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
