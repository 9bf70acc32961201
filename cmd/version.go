package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tranvictor/approvalscan/risk"
)

const (
	VERSION string = "0.1.0"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show approvalscan version",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		appUI.KeyValue([][2]string{
			{"Version", VERSION},
			{"Scoring", risk.ScoringVersion},
			{"Hygiene", risk.HygieneVersion},
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
