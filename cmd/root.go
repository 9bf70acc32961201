// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/logger"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/ui"
	"github.com/tranvictor/approvalscan/util/addrbook"
)

var (
	appLogger        = zap.NewNop()
	appUI      ui.UI = ui.NewTerminalUI()
	newBackend       = scan.LiveBackend
	newBook          = func() *addrbook.Default { return addrbook.NewDefault() }
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "approvalscan",
	Short: "Find the token approvals a wallet has granted and score their risk",
	Long: `Approvalscan reads a wallet's approval history from the chain, keeps the
approvals that are still live at the latest finalized block and scores each
of them by how much damage its spender could do.

Every approval ends up in one of three buckets (dangerous, risky, safe) and
the wallet gets a hygiene score from 0 to 100.

Nodes are picked per network. Set the network's node variable (for example
ETHEREUM_MAINNET_NODE, see "approvalscan networks" for the others) to use
your own node.
Set ETHERSCAN_API_KEY so spenders can be checked for verified source code.
Without it every unnamed contract counts as unverified.

Defaults can also be put in a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(config.LogDev)
		if err != nil {
			return fmt.Errorf("couldn't build logger: %w", err)
		}
		appLogger = l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	config.Load()
	if err := rootCmd.Execute(); err != nil {
		appUI.Error("%s", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&config.Network, "network", "k", "mainnet", "network name or chain id. Run \"approvalscan networks\" for the list.")
	rootCmd.PersistentFlags().BoolVar(&config.JSONOutput, "json", false, "print machine readable JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&config.LogDev, "dev-log", config.LogDev, "log human readable lines at debug level to stderr")
}
