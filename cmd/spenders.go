package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/util"
)

var spendersLimit int

var spendersCmd = &cobra.Command{
	Use:   "spenders <query>",
	Short: "Search the directory of known spenders and tokens",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries := newBook().Search(strings.Join(args, " "), spendersLimit)
		if config.JSONOutput {
			return printJSON(entries)
		}
		util.PrintSpenders(appUI, entries)
		return nil
	},
}

func init() {
	spendersCmd.Flags().IntVarP(&spendersLimit, "limit", "l", 10, "maximum number of matches")
	rootCmd.AddCommand(spendersCmd)
}
