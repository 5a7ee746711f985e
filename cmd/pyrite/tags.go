package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/pkg/service"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <kb>",
	Short: "List tags and their counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if tree, _ := cmd.Flags().GetBool("tree"); tree {
			nodes, err := application.Service.GetTagTree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTagTree(nodes, 0)
			return nil
		}
		tags, err := application.Service.GetTags(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, t := range tags {
			fmt.Printf("%s\t%d\n", t.Name, t.Count)
		}
		return nil
	},
}

func printTagTree(nodes []*service.TagNode, depth int) {
	for _, n := range nodes {
		fmt.Printf("%s%s (%d)\n", indent(depth), n.Name, n.Count)
		printTagTree(n.Children, depth+1)
	}
}

func indent(depth int) string {
	out := ""
	for i := 0; i < depth; i++ {
		out += "  "
	}
	return out
}

func init() {
	tagsCmd.Flags().Bool("tree", false, "group tags into their forward-slash hierarchy")
}
