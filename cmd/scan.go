package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/util"
)

var scanCmd = &cobra.Command{
	Use:   "scan <address>",
	Short: "Scan a wallet's live approvals and score their risk",
	Long: `Collects every Approval and ApprovalForAll event the wallet ever emitted,
checks which approvals are still live at the latest finalized block and
scores each one from 0 (harmless) to 100.

The exit code is 3 when some approvals could not be verified. The report
of the rest is still printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		network, err := currentNetwork()
		if err != nil {
			return err
		}
		backend := newBackend(appLogger)
		client, verifier := backend(network)
		if closer, ok := client.(interface{ Close() }); ok {
			defer closer.Close()
		}
		opts := scan.DefaultOptions()
		scanner := scan.NewScanner(network, client, verifier, newBook(), opts, appLogger)

		var result *scan.Result
		if config.JSONOutput {
			result, err = scanner.Scan(cmd.Context(), args[0])
		} else {
			result, err = util.ScanWithProgress(cmd.Context(), appUI, scanner, args[0])
		}
		var incomplete *jarviscommon.IncompleteError
		if err != nil && !errors.As(err, &incomplete) {
			return err
		}

		if config.JSONOutput {
			if perr := printJSON(result); perr != nil {
				return perr
			}
		} else {
			util.PrintReport(appUI, result)
		}
		return err
	},
}

func init() {
	scanCmd.Flags().DurationVar(&config.ScanTimeout, "timeout", config.ScanTimeout, "upper bound for the whole scan")
	rootCmd.AddCommand(scanCmd)
}
