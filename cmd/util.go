package cmd

import (
	"encoding/json"
	"errors"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/config"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/util"
)

const (
	EXIT_FAILURE    = 1
	EXIT_BAD_INPUT  = 2
	EXIT_INCOMPLETE = 3
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, jarviscommon.ErrInvalidAddress), errors.Is(err, jarviscommon.ErrUnsupportedChain):
		return EXIT_BAD_INPUT
	case errors.Is(err, jarviscommon.ErrResolutionIncomplete):
		return EXIT_INCOMPLETE
	default:
		return EXIT_FAILURE
	}
}

func currentNetwork() (networks.Network, error) {
	return util.NetworkFromFlag(config.Network)
}

func printJSON(v any) error {
	enc := json.NewEncoder(appUI.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
