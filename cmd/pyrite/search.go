package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/pkg/backend"
)

var searchKB string
var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Lexical full-text search across a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := application.Service.Search(cmd.Context(), backend.SearchFilter{
			Query:  args[0],
			KBName: searchKB,
			Limit:  searchLimit,
		})
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Printf("%s\t%s\t%s\n", r.Entry.ID, r.Entry.Title, r.Snippet)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchKB, "kb", "", "restrict to a single knowledge base")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")
}
