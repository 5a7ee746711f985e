package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/pkg/backend"
)

var graphDepth int

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Explore the link graph",
}

var graphShowCmd = &cobra.Command{
	Use:   "show <kb> <id>",
	Short: "Print the link-graph neighborhood of an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := application.Service.GetGraph(cmd.Context(), backend.GraphFilter{
			CenterKB: args[0],
			CenterID: args[1],
			Depth:    graphDepth,
		})
		if err != nil {
			return err
		}
		for _, n := range data.Nodes {
			fmt.Printf("node\t%s\t%s\t%s\thop=%d\n", n.KBName, n.ID, n.Title, n.Hops)
		}
		for _, e := range data.Edges {
			fmt.Printf("edge\t%s/%s -> %s/%s\t%s\n", e.SourceKB, e.SourceID, e.TargetKB, e.TargetID, e.Relation)
		}
		return nil
	},
}

var graphWantedCmd = &cobra.Command{
	Use:   "wanted <kb>",
	Short: "List wanted pages: link targets that have no entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, err := application.Service.GetWantedPages(cmd.Context(), args[0], 50)
		if err != nil {
			return err
		}
		for _, p := range pages {
			fmt.Printf("%s\trefs=%d\treferenced_by=%v\n", p.TargetID, p.RefCount, p.ReferencedBy)
		}
		return nil
	},
}

var graphBacklinksCmd = &cobra.Command{
	Use:   "backlinks <kb> <id>",
	Short: "List entries linking to this entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		links, err := application.Service.GetBacklinks(cmd.Context(), args[1], args[0])
		if err != nil {
			return err
		}
		for _, l := range links {
			fmt.Printf("%s/%s\t%s\n", l.SourceKB, l.SourceID, l.Relation)
		}
		return nil
	},
}

func init() {
	graphShowCmd.Flags().IntVar(&graphDepth, "depth", 2, "traversal depth")
	graphCmd.AddCommand(graphShowCmd, graphWantedCmd, graphBacklinksCmd)
}
