package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/altproxy/app/plugins"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "List built-in store types",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range plugins.Stores.Types() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), t); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
}
