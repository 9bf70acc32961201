package networks

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DEFAULT_EXPLORER_API_URL = "https://api.etherscan.io/v2/api"
	DEFAULT_REVOKE_BASE_URL  = "https://revoke.cash/address"
	DEFAULT_LOG_RANGE_LIMIT  = 1_000_000
	DEFAULT_CONFIRMATIONS    = 64

	EXPLORER_TYPE_ETHERSCAN  = "etherscan"
	EXPLORER_TYPE_BLOCKSCOUT = "blockscout"
)

type GenericEtherscanNetworkConfig struct {
	Name                            string            `json:"name"`
	DisplayName                     string            `json:"display_name"`
	AlternativeNames                []string          `json:"alternative_names"`
	ChainID                         uint64            `json:"chain_id"`
	NativeTokenSymbol               string            `json:"native_token_symbol"`
	BlockTime                       uint64            `json:"block_time"`
	NodeVariableName                string            `json:"node_variable_name"`
	DefaultNodes                    map[string]string `json:"default_nodes"`
	BlockExplorerURL                string            `json:"block_explorer_url"`
	BlockExplorerAPIKeyVariableName string            `json:"block_explorer_api_key_variable_name"`
	BlockExplorerAPIURL             string            `json:"block_explorer_api_url"`
	BlockExplorerType               string            `json:"block_explorer_type"`
	RevokeBaseURL                   string            `json:"revoke_base_url"`
	LogRangeLimit                   uint64            `json:"log_range_limit"`
	StartBlock                      uint64            `json:"start_block"`
	Confirmations                   uint64            `json:"confirmations"`
}

// GenericEtherscanNetwork is a generic implementation of a network that uses
// an Etherscan compatible explorer
type GenericEtherscanNetwork struct {
	config GenericEtherscanNetworkConfig
	apiKey string
}

func NewGenericEtherscanNetwork(config GenericEtherscanNetworkConfig) *GenericEtherscanNetwork {
	if config.BlockExplorerAPIURL == "" {
		config.BlockExplorerAPIURL = DEFAULT_EXPLORER_API_URL
	}
	if config.BlockExplorerAPIKeyVariableName == "" {
		config.BlockExplorerAPIKeyVariableName = "ETHERSCAN_API_KEY"
	}
	if config.BlockExplorerType == "" {
		config.BlockExplorerType = EXPLORER_TYPE_ETHERSCAN
	}
	if config.RevokeBaseURL == "" {
		config.RevokeBaseURL = DEFAULT_REVOKE_BASE_URL
	}
	if config.LogRangeLimit == 0 {
		config.LogRangeLimit = DEFAULT_LOG_RANGE_LIMIT
	}
	if config.Confirmations == 0 {
		config.Confirmations = DEFAULT_CONFIRMATIONS
	}
	if config.NodeVariableName == "" {
		config.NodeVariableName = fmt.Sprintf(
			"APPROVALSCAN_%s_NODE",
			strings.ToUpper(strings.ReplaceAll(config.Name, "-", "_")),
		)
	}
	if config.DisplayName == "" {
		config.DisplayName = config.Name
	}
	return &GenericEtherscanNetwork{config: config}
}

func (gn *GenericEtherscanNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericEtherscanNetwork) GetDisplayName() string {
	return gn.config.DisplayName
}

// GetBlockExplorerType tells which verification API BlockExplorerAPIURL
// speaks: etherscan (getsourcecode) or blockscout (v2 smart-contracts).
func (gn *GenericEtherscanNetwork) GetBlockExplorerType() string {
	return gn.config.BlockExplorerType
}

func (gn *GenericEtherscanNetwork) GetChainID() uint64 {
	return gn.config.ChainID
}

func (gn *GenericEtherscanNetwork) GetAlternativeNames() []string {
	return gn.config.AlternativeNames
}

func (gn *GenericEtherscanNetwork) GetNativeTokenSymbol() string {
	return gn.config.NativeTokenSymbol
}

func (gn *GenericEtherscanNetwork) GetBlockTime() time.Duration {
	return time.Duration(gn.config.BlockTime) * time.Second
}

func (gn *GenericEtherscanNetwork) GetNodeVariableName() string {
	return gn.config.NodeVariableName
}

func (gn *GenericEtherscanNetwork) GetDefaultNodes() map[string]string {
	return gn.config.DefaultNodes
}

func (gn *GenericEtherscanNetwork) GetBlockExplorerURL() string {
	return strings.TrimRight(gn.config.BlockExplorerURL, "/")
}

func (gn *GenericEtherscanNetwork) GetBlockExplorerAPIKeyVariableName() string {
	return gn.config.BlockExplorerAPIKeyVariableName
}

func (gn *GenericEtherscanNetwork) GetBlockExplorerAPIURL() string {
	return gn.config.BlockExplorerAPIURL
}

// GetBlockExplorerAPIKey reads the key from the environment on every call so
// that keys loaded from a .env file after start up are picked up.
func (gn *GenericEtherscanNetwork) GetBlockExplorerAPIKey() string {
	if gn.apiKey != "" {
		return gn.apiKey
	}
	return strings.Trim(os.Getenv(gn.GetBlockExplorerAPIKeyVariableName()), " ")
}

// SetBlockExplorerAPIKey overrides the key read from the environment.
func (gn *GenericEtherscanNetwork) SetBlockExplorerAPIKey(key string) {
	gn.apiKey = strings.TrimSpace(key)
}

func (gn *GenericEtherscanNetwork) GetRevokeBaseURL() string {
	return strings.TrimRight(gn.config.RevokeBaseURL, "/")
}

func (gn *GenericEtherscanNetwork) GetLogRangeLimit() uint64 {
	return gn.config.LogRangeLimit
}

func (gn *GenericEtherscanNetwork) GetStartBlock() uint64 {
	return gn.config.StartBlock
}

func (gn *GenericEtherscanNetwork) GetConfirmations() uint64 {
	return gn.config.Confirmations
}

func (gn *GenericEtherscanNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(gn.config)
}
