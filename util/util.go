package util

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/networks"
	"github.com/tranvictor/approvalscan/scan"
	"github.com/tranvictor/approvalscan/ui"
)

// NetworkFromFlag accepts a network name, one of its alternative names, or
// a chain id.
func NetworkFromFlag(value string) (networks.Network, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if id, err := strconv.ParseUint(value, 10, 64); err == nil {
		n, err := networks.GetNetworkByID(id)
		if err != nil {
			return nil, fmt.Errorf("%w: chain id %d", jarviscommon.ErrUnsupportedChain, id)
		}
		return n, nil
	}
	n, err := networks.GetNetwork(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", jarviscommon.ErrUnsupportedChain, value)
	}
	return n, nil
}

var stageMessages = map[scan.State]string{
	scan.StateStarted:          "Pinning the finalized block",
	scan.StateCollectingEvents: "Collecting approval events",
	scan.StateResolving:        "Verifying approvals on chain",
	scan.StateClassifying:      "Looking up spenders and tokens",
	scan.StateScoring:          "Scoring approvals",
	scan.StateAggregating:      "Building the report",
	scan.StateCompleted:        "Done",
	scan.StateFailed:           "Scan failed",
}

func StageMessage(s scan.State) string {
	if msg, found := stageMessages[s]; found {
		return msg
	}
	return string(s)
}

// ScanWithProgress runs the scan behind a spinner that follows its stages.
func ScanWithProgress(ctx context.Context, u ui.UI, scanner *scan.Scanner, wallet string) (*scan.Result, error) {
	progress := u.Spinner(fmt.Sprintf("Scanning %s on %s", wallet, scanner.Network().GetDisplayName()))
	defer progress.Stop()
	return scanner.WithStateHook(func(s scan.State) {
		progress.Update(StageMessage(s))
	}).Scan(ctx, wallet)
}
