package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/markramm/pyrite/pkg/model"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered knowledge bases",
	RunE: func(cmd *cobra.Command, args []string) error {
		kbs, err := application.Service.ListKBs(cmd.Context())
		if err != nil {
			return err
		}
		for _, kb := range kbs {
			ro := ""
			if kb.ReadOnly {
				ro = " (read-only)"
			}
			fmt.Printf("%s\t%s%s\n", kb.Name, kb.Path, ro)
		}
		return nil
	},
}

var (
	kbRegisterPath     string
	kbRegisterReadOnly bool
)

var kbRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.Service.RegisterKB(cmd.Context(), model.KB{
			Name:     args[0],
			Path:     kbRegisterPath,
			ReadOnly: kbRegisterReadOnly,
		})
	},
}

var kbUnregisterCmd = &cobra.Command{
	Use:   "unregister <name>",
	Short: "Unregister a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.Service.UnregisterKB(cmd.Context(), args[0])
	},
}

func init() {
	kbRegisterCmd.Flags().StringVar(&kbRegisterPath, "path", "", "filesystem root this KB indexes")
	kbRegisterCmd.Flags().BoolVar(&kbRegisterReadOnly, "read-only", false, "reject mutations against this KB")

	kbCmd.AddCommand(kbListCmd, kbRegisterCmd, kbUnregisterCmd)
}
