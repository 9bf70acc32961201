package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/util"
)

type networkJSON struct {
	ChainID      uint64 `json:"chain_id"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	Explorer     string `json:"explorer"`
	NodeVariable string `json:"node_variable"`
}

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the supported chains",
	Long: `Lists built-in chains plus the custom ones found in
~/.approvalscan/networks/*.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list := networks.GetSupportedNetworks()
		if !config.JSONOutput {
			util.PrintNetworks(appUI, list)
			return nil
		}
		out := make([]networkJSON, 0, len(list))
		for _, n := range list {
			out = append(out, networkJSON{
				ChainID:      n.GetChainID(),
				Name:         n.GetName(),
				DisplayName:  n.GetDisplayName(),
				Explorer:     n.GetBlockExplorerURL(),
				NodeVariable: n.GetNodeVariableName(),
			})
		}
		return printJSON(out)
	},
}

func init() {
	rootCmd.AddCommand(networksCmd)
}
