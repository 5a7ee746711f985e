package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex <kb> <root>",
	Short: "Walk root and fully reindex a knowledge base",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := application.Service.ReindexKB(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("added=%d updated=%d removed=%d errors=%d coverage=%.2f\n",
			stats.Added, stats.Updated, stats.Removed, stats.Errors, stats.EmbeddingCoverage)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <kb> <root>",
	Short: "Incrementally sync a knowledge base against root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := application.Service.SyncIndex(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("added=%d updated=%d removed=%d errors=%d\n", stats.Added, stats.Updated, stats.Removed, stats.Errors)
		return nil
	},
}
