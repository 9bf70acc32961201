package addrbook

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Map is a lightweight AddressResolver for tests. It maps lower-cased
// addresses to names on every chain.
//
//	r := addrbook.Map{
//	    "0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2: Router 2",
//	}
type Map map[string]string

func (m Map) Resolve(chainID uint64, addr common.Address) (Entry, bool) {
	if name, ok := m[strings.ToLower(addr.Hex())]; ok {
		return Entry{Address: addr, Name: name, Kind: KindProtocol}, true
	}
	return Entry{Address: addr}, false
}
