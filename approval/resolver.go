package approval

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/util/reader"
)

// Resolved is the current state of one (token, spender, scope)
// relationship, backed by a live read at the scan's block.
type Resolved struct {
	Owner    common.Address
	Token    common.Address
	Spender  common.Address
	Kind     Kind
	Standard Standard
	// TokenID is set for single token approvals only.
	TokenID *big.Int
	// Allowance is the live ERC20 allowance, or 1 for NFT approvals.
	Allowance    *big.Int
	GrantedBlock uint64
	GrantedAt    time.Time
	TxHash       common.Hash
	// ForAll marks ApprovalForAll grants before the token standard is known.
	ForAll bool
	Active bool
}

func (r Resolved) IsUnlimited() bool {
	return r.Kind == KindUnlimitedAmount
}

// LatestGrants reduces an event history to its grant of record per key:
// the event with the highest (block, tx index, log index). It stops at the
// first error in the sequence.
func LatestGrants(events iter.Seq2[Event, error]) ([]Event, error) {
	latest := map[Key]Event{}
	for e, err := range events {
		if err != nil {
			return nil, err
		}
		k := e.Key()
		if cur, found := latest[k]; !found || e.After(cur) {
			latest[k] = e
		}
	}
	result := make([]Event, 0, len(latest))
	for _, e := range latest {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return lessKey(result[i].Key(), result[j].Key())
	})
	return result, nil
}

func lessKey(a, b Key) bool {
	if c := bytes.Compare(a.Token[:], b.Token[:]); c != 0 {
		return c < 0
	}
	if c := bytes.Compare(a.Spender[:], b.Spender[:]); c != 0 {
		return c < 0
	}
	return a.Scope < b.Scope
}

type Resolver struct {
	contracts *reader.Contracts
	fanout    int
	logger    *zap.Logger
}

func NewResolver(contracts *reader.Contracts, fanout int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{contracts: contracts, fanout: fanout, logger: logger}
}

type outcome struct {
	resolved Resolved
	active   bool
	err      error
}

// Resolve verifies every grant of record against live state at block and
// returns the still active ones, ordered by key. Grants whose reads fail
// because the chain is unreachable or the context ran out are left out and
// reported through an *jarviscommon.IncompleteError next to the partial
// result. Reads the contract itself rejects mean it no longer honours the
// approval and the grant is dropped.
func (r *Resolver) Resolve(ctx context.Context, owner common.Address, grants []Event, block uint64) ([]Resolved, error) {
	live := make([]Event, 0, len(grants))
	for _, g := range grants {
		if g.IsRevocation() {
			continue
		}
		live = append(live, g)
	}

	at := new(big.Int).SetUint64(block)
	outcomes := make([]outcome, len(live))
	indexes := make([]int, len(live))
	for i := range indexes {
		indexes[i] = i
	}
	_ = jarviscommon.RunParallel(ctx, r.fanout, indexes, func(ctx context.Context, i int) error {
		outcomes[i] = r.verify(ctx, owner, live[i], at)
		return nil
	})

	var (
		unresolved int
		firstErr   error
		active     []Resolved
	)
	for i, o := range outcomes {
		switch {
		case o.err != nil && reader.IsContractFailure(o.err):
			r.logger.Debug("dropping approval the token no longer answers for",
				zap.String("token", live[i].Token.Hex()),
				zap.String("spender", live[i].Spender.Hex()),
				zap.Error(o.err),
			)
		case o.err != nil:
			unresolved++
			if firstErr == nil {
				firstErr = o.err
			}
		case o.active:
			active = append(active, o.resolved)
		}
	}

	timed, missing, err := r.stampGrantTimes(ctx, active)
	if missing > 0 {
		unresolved += missing
		if firstErr == nil {
			firstErr = err
		}
	}

	if unresolved > 0 {
		r.logger.Warn("approval resolution incomplete",
			zap.Int("unresolved", unresolved),
			zap.Error(firstErr),
		)
		return timed, &jarviscommon.IncompleteError{Unresolved: unresolved, Cause: firstErr}
	}
	return timed, nil
}

func (r *Resolver) verify(ctx context.Context, owner common.Address, g Event, at *big.Int) outcome {
	res := Resolved{
		Owner:        owner,
		Token:        g.Token,
		Spender:      g.Spender,
		Standard:     g.Standard,
		GrantedBlock: g.BlockNumber,
		TxHash:       g.TxHash,
		ForAll:       g.ForAll,
	}
	switch {
	case g.ForAll:
		approved, err := r.contracts.IsApprovedForAll(ctx, at, g.Token, owner, g.Spender)
		if err != nil || !approved {
			return outcome{err: err}
		}
		res.Kind = KindAllTokens
		res.Allowance = big.NewInt(1)

	case g.IsSingleToken():
		current, err := r.contracts.GetApproved(ctx, at, g.Token, g.Value)
		if err != nil || current != g.Spender {
			return outcome{err: err}
		}
		res.Kind = KindSingleToken
		res.TokenID = new(big.Int).Set(g.Value)
		res.Allowance = big.NewInt(1)

	default:
		allowance, err := r.contracts.Allowance(ctx, at, g.Token, owner, g.Spender)
		if err != nil || allowance.Sign() == 0 {
			return outcome{err: err}
		}
		res.Kind = KindExactAmount
		if jarviscommon.IsUnlimited(allowance) {
			res.Kind = KindUnlimitedAmount
		}
		res.Allowance = allowance
	}
	res.Active = true
	return outcome{resolved: res, active: true}
}

// stampGrantTimes fills GrantedAt from the grant block's timestamp, reading
// each distinct block once. Approvals whose block time cannot be read are
// dropped and counted.
func (r *Resolver) stampGrantTimes(ctx context.Context, approvals []Resolved) ([]Resolved, int, error) {
	blocks := []uint64{}
	seen := map[uint64]bool{}
	for _, a := range approvals {
		if !seen[a.GrantedBlock] {
			seen[a.GrantedBlock] = true
			blocks = append(blocks, a.GrantedBlock)
		}
	}

	var (
		mu       sync.Mutex
		times    = map[uint64]time.Time{}
		firstErr error
	)
	_ = jarviscommon.RunParallel(ctx, r.fanout, blocks, func(ctx context.Context, n uint64) error {
		ts, err := r.contracts.BlockTime(ctx, n)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		times[n] = ts
		return nil
	})

	result := make([]Resolved, 0, len(approvals))
	missing := 0
	for _, a := range approvals {
		ts, found := times[a.GrantedBlock]
		if !found {
			missing++
			continue
		}
		a.GrantedAt = ts
		result = append(result, a)
	}
	if missing > 0 && firstErr == nil {
		firstErr = errors.New("block timestamp unavailable")
	}
	return result, missing, firstErr
}
