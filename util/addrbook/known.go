package addrbook

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	chainEthereum uint64 = 1
	chainOptimism uint64 = 10
	chainPolygon  uint64 = 137
	chainBase     uint64 = 8453
	chainArbitrum uint64 = 42161
)

func spender(addr, name string, kind Kind, chains ...uint64) Entry {
	return Entry{Address: common.HexToAddress(addr), Name: name, Kind: kind, ChainIDs: chains}
}

func token(chain uint64, addr, name, symbol string, decimals uint8) Entry {
	return Entry{
		Address:  common.HexToAddress(addr),
		Name:     name,
		Kind:     KindToken,
		ChainIDs: []uint64{chain},
		Symbol:   symbol,
		Decimals: &decimals,
	}
}

// KnownSpenders is the curated list of major protocol contracts users
// commonly approve.
var KnownSpenders = []Entry{
	spender("0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45", "Uniswap: Universal Router", KindProtocol, chainEthereum, chainPolygon, chainArbitrum, chainOptimism),
	spender("0xef1c6e67703c7bd7107eed8303fbe6ec2554bf6b", "Uniswap: Universal Router 2", KindProtocol, chainEthereum),
	spender("0x3fc91a3afd70395cd496c647d5a6cc9d4b2b7fad", "Uniswap: Universal Router 3", KindProtocol, chainEthereum, chainPolygon, chainArbitrum, chainOptimism, chainBase),
	spender("0x7a250d5630b4cf539739df2c5dacb4c659f2488d", "Uniswap V2: Router 2", KindProtocol, chainEthereum),
	spender("0xe592427a0aece92de3edee1f18e0157c05861564", "Uniswap V3: Router", KindProtocol, chainEthereum, chainPolygon, chainArbitrum, chainOptimism),
	spender("0x000000000022d473030f116ddee9f6b43ac78ba3", "Uniswap: Permit2", KindProtocol),

	spender("0x1e0049783f008a0085193e00003d00cd54003c71", "OpenSea: Seaport 1.4", KindMarketplace),
	spender("0x00000000000001ad428e4906ae43d8f9852d0dd6", "OpenSea: Seaport 1.5", KindMarketplace),
	spender("0x00000000000000adc04c56bf30ac9d3c0aaf14dc", "OpenSea: Seaport 1.6", KindMarketplace),

	spender("0x000000000000ad05ccc4f10045630fb830b95127", "Blur: Marketplace", KindMarketplace, chainEthereum),
	spender("0x29469395eaf6f95920e59f858042f0e28d98a20b", "Blur: Blend", KindMarketplace, chainEthereum),

	spender("0x1111111254eeb25477b68fb85ed929f73a960582", "1inch: Aggregation Router V5", KindProtocol),
	spender("0x111111125421ca6dc452d289314280a0f8842a65", "1inch: Aggregation Router V6", KindProtocol),

	spender("0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", "Aave: AAVE Token", KindProtocol, chainEthereum),
	spender("0x87870bca3f3fd6335c3f4ce8392d69350b4fa4e2", "Aave: Pool V3", KindProtocol, chainEthereum),

	spender("0xc00e94cb662c3520282e6f5717214004a7f26888", "Compound: COMP Token", KindProtocol, chainEthereum),
}

// KnownTokens backs token metadata when a contract's own symbol or decimals
// read fails.
var KnownTokens = []Entry{
	token(chainEthereum, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "USD Coin", "USDC", 6),
	token(chainEthereum, "0xdac17f958d2ee523a2206206994597c13d831ec7", "Tether USD", "USDT", 6),
	token(chainEthereum, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "Wrapped Ether", "WETH", 18),
	token(chainEthereum, "0x6b175474e89094c44da98b954eedeac495271d0f", "Dai Stablecoin", "DAI", 18),
	token(chainEthereum, "0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", "Maker", "MKR", 18),
	token(chainEthereum, "0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d", "Bored Ape Yacht Club", "BAYC", 0),

	token(chainPolygon, "0x3c499c542cef5e3811e1192ce70d8cc03d5c3359", "USD Coin", "USDC", 6),
	token(chainPolygon, "0x7ceb23fd6bc0add59e62ac25578270cff1b9f619", "Wrapped Ether", "WETH", 18),

	token(chainArbitrum, "0xaf88d065e77c8cc2239327c5edb3a432268e5831", "USD Coin", "USDC", 6),
	token(chainArbitrum, "0x82af49447d8a07e3bd95bd0d56f35241523fbab1", "Wrapped Ether", "WETH", 18),

	token(chainOptimism, "0x0b2c639c533813f4aa9d7837caf62653d097ff85", "USD Coin", "USDC", 6),
	token(chainOptimism, "0x4200000000000000000000000000000000000006", "Wrapped Ether", "WETH", 18),

	token(chainBase, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "USD Coin", "USDC", 6),
	token(chainBase, "0x4200000000000000000000000000000000000006", "Wrapped Ether", "WETH", 18),
}
