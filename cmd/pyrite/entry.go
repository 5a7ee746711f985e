package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/pkg/mdparse"
)

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Inspect and manage individual entries",
}

var entryGetCmd = &cobra.Command{
	Use:   "get <kb> <id>",
	Short: "Print an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := application.Service.GetEntry(cmd.Context(), args[1], args[0])
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n\ntype: %s\ndate: %s\ntags: %v\n\n%s\n", entry.Title, entry.EntryType, entry.Date, entry.Tags, entry.Body)
		return nil
	},
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <kb> <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := application.Service.DeleteEntry(cmd.Context(), args[1], args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("not found")
		}
		return nil
	},
}

var entryImportCmd = &cobra.Command{
	Use:   "import <kb> <file>",
	Short: "Parse a markdown file and upsert it as an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kbName, path := args[0], args[1]
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entry, err := mdparse.ParseFile(kbName, path, content)
		if err != nil {
			return err
		}
		if err := application.Service.CreateEntry(cmd.Context(), entry); err != nil {
			return err
		}
		fmt.Printf("imported %s/%s\n", kbName, entry.ID)
		return nil
	},
}

func init() {
	entryCmd.AddCommand(entryGetCmd, entryDeleteCmd, entryImportCmd)
}
