package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errInvalidCodes = errors.New("one or more codes are not valid structured codes")

var validateCmd = &cobra.Command{
	Use:   "validate <code>...",
	Short: "Check codes against the structured format",
	Long:  "Prints VALID or INVALID per code. Exits non-zero if any code is invalid.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("decode"); err != nil {
			return err
		}
		d := newDecoder()

		allValid := true
		for _, code := range args {
			status := "VALID"
			if !d.Validate(code) {
				status = "INVALID"
				allValid = false
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status, code)
		}
		if !allValid {
			cmd.SilenceUsage = true
			return errInvalidCodes
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
