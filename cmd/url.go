package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/cellscan-cli/internal/batterycode"
)

var urlCmd = &cobra.Command{
	Use:   "url <code>",
	Short: "Print the manufacturer decoder page URL for a code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), batterycode.LookupURL(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
}
