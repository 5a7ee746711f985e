// Command pyrite is the cobra CLI front end onto pkg/service: knowledge
// base administration, entry CRUD, search, and index maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/internal/app"
)

var (
	cfgPath     string
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "pyrite",
	Short: "pyrite - markdown knowledge base indexer and search engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.Bootstrap(cfgPath)
		if err != nil {
			return fmt.Errorf("pyrite: %w", err)
		}
		application = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if application == nil {
			return nil
		}
		return application.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to pyrite.toml (default: ./pyrite.toml if present)")
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(syncCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
