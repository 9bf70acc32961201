package approval_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/approvalscan/networks"
)

var (
	owner     = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	stranger  = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	router    = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	seaport   = common.HexToAddress("0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC")
	drainer   = common.HexToAddress("0x00000000000000000000000000000000dEaDBeef")
	usdc      = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai       = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	bayc      = common.HexToAddress("0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D")
	multitoke = common.HexToAddress("0x76BE3b62873462d2142405439777e971754E8E77")
)

func testNetwork(t *testing.T, logRangeLimit uint64) networks.Network {
	t.Helper()
	return networks.NewGenericEtherscanNetwork(networks.GenericEtherscanNetworkConfig{
		Name:             "testnet",
		ChainID:          31337,
		BlockExplorerURL: "https://explorer.test",
		LogRangeLimit:    logRangeLimit,
	})
}

func amount(v int64) *big.Int {
	return big.NewInt(v)
}
