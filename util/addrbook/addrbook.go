// Package addrbook maps addresses to human readable names.
//
// Production code uses [Default]: the curated directory of well known
// spenders and tokens shipped with the binary, extended by the user's own
// labels in ~/.approvalscan/addresses.json. Tests inject [Map], a plain map
// that resolves without touching the file system.
package addrbook

import (
	"github.com/ethereum/go-ethereum/common"
)

type Kind string

const (
	KindProtocol    Kind = "protocol"
	KindMarketplace Kind = "marketplace"
	KindToken       Kind = "token"
	KindUser        Kind = "user"
)

// Entry is one labelled address. An entry without ChainIDs applies to every
// chain, which is the case for contracts deployed at the same address
// everywhere (Permit2, Seaport) and for user labels.
type Entry struct {
	Address  common.Address `json:"address"`
	Name     string         `json:"name"`
	Kind     Kind           `json:"kind"`
	ChainIDs []uint64       `json:"chain_ids,omitempty"`
	// token entries only
	Symbol   string `json:"symbol,omitempty"`
	Decimals *uint8 `json:"decimals,omitempty"`
}

func (e Entry) OnChain(chainID uint64) bool {
	if len(e.ChainIDs) == 0 {
		return true
	}
	for _, id := range e.ChainIDs {
		if id == chainID {
			return true
		}
	}
	return false
}

// AddressResolver finds the label of addr on a chain. The second result is
// false when the address is not known; callers must not treat that as an
// error.
type AddressResolver interface {
	Resolve(chainID uint64, addr common.Address) (Entry, bool)
}
