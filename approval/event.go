package approval

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	jarviscommon "github.com/tranvictor/approvalscan/common"
)

type Standard string

const (
	ERC20   Standard = "ERC20"
	ERC721  Standard = "ERC721"
	ERC1155 Standard = "ERC1155"
)

type Kind string

const (
	KindExactAmount     Kind = "exact-amount"
	KindUnlimitedAmount Kind = "unlimited-amount"
	KindSingleToken     Kind = "single-token"
	KindAllTokens       Kind = "all-tokens"
)

// ScopeAll is the scope of fungible and blanket approvals.
const ScopeAll = "*"

var ErrMalformedLog = errors.New("malformed approval log")

// Event is one decoded Approval or ApprovalForAll log emitted for an owner.
type Event struct {
	Token   common.Address
	Owner   common.Address
	Spender common.Address
	// Standard is a hint from the log shape. ApprovalForAll logs are tagged
	// ERC721 until the token is probed for ERC1155.
	Standard Standard
	ForAll   bool
	// Value is the ERC20 amount or the ERC721 token id.
	Value    *big.Int
	Approved bool

	BlockNumber uint64
	BlockTime   time.Time
	TxHash      common.Hash
	TxIndex     uint
	LogIndex    uint
}

// Key identifies one (token, spender, scope) relationship.
type Key struct {
	Token   common.Address
	Spender common.Address
	Scope   string
}

func (e Event) IsSingleToken() bool {
	return !e.ForAll && e.Standard == ERC721
}

func (e Event) Scope() string {
	if e.IsSingleToken() && e.Value != nil {
		return e.Value.String()
	}
	return ScopeAll
}

func (e Event) Key() Key {
	return Key{Token: e.Token, Spender: e.Spender, Scope: e.Scope()}
}

// After orders events by block, then transaction index, then log index.
func (e Event) After(o Event) bool {
	if e.BlockNumber != o.BlockNumber {
		return e.BlockNumber > o.BlockNumber
	}
	if e.TxIndex != o.TxIndex {
		return e.TxIndex > o.TxIndex
	}
	return e.LogIndex > o.LogIndex
}

// IsRevocation reports whether the event itself withdraws the permission:
// an ApprovalForAll(false), an ERC20 approval of zero, or an ERC721
// approval to the zero address.
func (e Event) IsRevocation() bool {
	switch {
	case e.ForAll:
		return !e.Approved
	case e.Spender == jarviscommon.ZeroAddress:
		return true
	case e.Standard == ERC20:
		return e.Value == nil || e.Value.Sign() == 0
	}
	return false
}

// DecodeLog turns a raw log into an Event. Approval logs with four topics
// are ERC721 single token approvals; with three topics and a 32 byte word
// of data they are ERC20 allowances.
func DecodeLog(l types.Log) (Event, error) {
	if len(l.Topics) < 3 {
		return Event{}, fmt.Errorf("%w: %d topics", ErrMalformedLog, len(l.Topics))
	}
	e := Event{
		Token:       l.Address,
		Owner:       jarviscommon.TopicToAddress(l.Topics[1]),
		Spender:     jarviscommon.TopicToAddress(l.Topics[2]),
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		TxIndex:     l.TxIndex,
		LogIndex:    l.Index,
	}
	switch l.Topics[0] {
	case jarviscommon.ApprovalTopic:
		switch {
		case len(l.Topics) == 4:
			e.Standard = ERC721
			e.Value = l.Topics[3].Big()
			e.Approved = true
		case len(l.Topics) == 3 && len(l.Data) == 32:
			e.Standard = ERC20
			e.Value = new(big.Int).SetBytes(l.Data)
			e.Approved = true
		default:
			return Event{}, fmt.Errorf("%w: Approval with %d topics and %d bytes of data", ErrMalformedLog, len(l.Topics), len(l.Data))
		}
	case jarviscommon.ApprovalForAllTopic:
		if len(l.Topics) != 3 || len(l.Data) != 32 {
			return Event{}, fmt.Errorf("%w: ApprovalForAll with %d topics and %d bytes of data", ErrMalformedLog, len(l.Topics), len(l.Data))
		}
		e.Standard = ERC721
		e.ForAll = true
		e.Approved = new(big.Int).SetBytes(l.Data).Sign() != 0
	default:
		return Event{}, fmt.Errorf("%w: unexpected topic %s", ErrMalformedLog, l.Topics[0].Hex())
	}
	return e, nil
}
