package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/util"
)

var validateCmd = &cobra.Command{
	Use:   "validate <address>",
	Short: "Check an address and show its checksummed form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v := jarviscommon.ValidateAddress(args[0])
		if config.JSONOutput {
			if err := printJSON(v); err != nil {
				return err
			}
		} else {
			util.PrintValidation(appUI, args[0], v)
		}
		if !v.Valid {
			return fmt.Errorf("%w: %s", jarviscommon.ErrInvalidAddress, v.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
