package networks

import (
	"time"
)

type Network interface {
	GetName() string
	GetDisplayName() string
	GetChainID() uint64
	GetAlternativeNames() []string
	GetNativeTokenSymbol() string
	GetBlockTime() time.Duration // in second

	GetNodeVariableName() string
	GetDefaultNodes() map[string]string

	GetBlockExplorerURL() string
	GetBlockExplorerAPIKeyVariableName() string
	GetBlockExplorerAPIURL() string
	GetBlockExplorerAPIKey() string
	GetBlockExplorerType() string

	// GetRevokeBaseURL is the external revocation tool the report links to.
	GetRevokeBaseURL() string
	// GetLogRangeLimit is the widest eth_getLogs block range the public nodes
	// of this chain accept.
	GetLogRangeLimit() uint64
	GetStartBlock() uint64
	// GetConfirmations is used when a node does not understand the
	// "finalized" block tag.
	GetConfirmations() uint64

	MarshalJSON() ([]byte, error)
}
