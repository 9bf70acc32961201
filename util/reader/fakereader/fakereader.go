// Package fakereader is an in-memory reader.ChainClient for tests. It serves
// eth_getLogs from recorded logs and answers the ERC20/721/1155 view calls
// the scanner makes by decoding the calldata against the same ABIs.
package fakereader

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	jarviscommon "github.com/tranvictor/approvalscan/common"
)

const (
	MethodFilterLogs     = "FilterLogs"
	MethodCallContract   = "CallContract"
	MethodCodeAt         = "CodeAt"
	MethodHeaderByNumber = "HeaderByNumber"
)

// RevertError looks like what geth returns for a reverted eth_call.
type RevertError struct{}

func (RevertError) Error() string  { return "execution reverted" }
func (RevertError) ErrorCode() int { return 3 }

// Token is the live state of one token contract.
type Token struct {
	Symbol   string
	Name     string
	Decimals *uint8
	// Bytes32Metadata makes symbol() and name() return bytes32.
	Bytes32Metadata bool
	NoMetadata      bool
	Interfaces      map[[4]byte]bool

	allowances map[[2]common.Address]*big.Int
	operators  map[[2]common.Address]bool
	approved   map[string]common.Address
}

func (t *Token) SetAllowance(owner, spender common.Address, amount *big.Int) *Token {
	t.allowances[[2]common.Address{owner, spender}] = amount
	return t
}

func (t *Token) SetApprovalForAll(owner, operator common.Address, approved bool) *Token {
	t.operators[[2]common.Address{owner, operator}] = approved
	return t
}

func (t *Token) SetApproved(tokenID *big.Int, spender common.Address) *Token {
	t.approved[tokenID.String()] = spender
	return t
}

func (t *Token) Supports(ids ...string) *Token {
	for _, id := range ids {
		t.Interfaces[jarviscommon.InterfaceID(id)] = true
	}
	return t
}

type FakeReader struct {
	mu sync.Mutex

	Latest    uint64
	Finalized uint64
	// BaseTime is the timestamp of block 0; block n is BaseTime + 12n unless
	// set explicitly with SetBlockTime.
	BaseTime uint64
	// MaxBlockRange and MaxLogsPerQuery make FilterLogs fail like a provider
	// enforcing query limits. Zero disables the limit.
	MaxBlockRange   uint64
	MaxLogsPerQuery int

	logs       []types.Log
	tokens     map[common.Address]*Token
	code       map[common.Address][]byte
	blockTimes map[uint64]uint64
	failures   map[string][]error
	calls      map[string]int
	queries    []ethereum.FilterQuery
}

func New(latest uint64) *FakeReader {
	return &FakeReader{
		Latest:     latest,
		Finalized:  latest,
		tokens:     map[common.Address]*Token{},
		code:       map[common.Address][]byte{},
		blockTimes: map[uint64]uint64{},
		failures:   map[string][]error{},
		calls:      map[string]int{},
	}
}

// Token returns the token at addr, creating it (and giving addr code) on
// first use.
func (f *FakeReader) Token(addr common.Address) *Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, found := f.tokens[addr]
	if !found {
		t = &Token{
			Interfaces: map[[4]byte]bool{},
			allowances: map[[2]common.Address]*big.Int{},
			operators:  map[[2]common.Address]bool{},
			approved:   map[string]common.Address{},
		}
		f.tokens[addr] = t
		if _, hasCode := f.code[addr]; !hasCode {
			f.code[addr] = []byte{0x60, 0x80}
		}
	}
	return t
}

func (f *FakeReader) SetCode(addr common.Address, code []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.code[addr] = code
}

func (f *FakeReader) SetBlockTime(block, unix uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockTimes[block] = unix
}

// FailNext queues errors returned, in order, by the next calls of method.
func (f *FakeReader) FailNext(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], errs...)
}

func (f *FakeReader) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeReader) Queries() []ethereum.FilterQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ethereum.FilterQuery{}, f.queries...)
}

func (f *FakeReader) AddLog(l types.Log) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
}

// AddApproval records an ERC20 Approval(owner, spender, amount).
func (f *FakeReader) AddApproval(token, owner, spender common.Address, amount *big.Int, block uint64, txIndex, logIndex uint) types.Log {
	l := types.Log{
		Address: token,
		Topics: []common.Hash{
			jarviscommon.ApprovalTopic,
			jarviscommon.AddressToTopic(owner),
			jarviscommon.AddressToTopic(spender),
		},
		Data:        common.LeftPadBytes(amount.Bytes(), 32),
		BlockNumber: block,
		TxHash:      txHash(block, txIndex),
		TxIndex:     txIndex,
		Index:       logIndex,
	}
	f.AddLog(l)
	return l
}

// AddTokenApproval records an ERC721 Approval(owner, approved, tokenId).
func (f *FakeReader) AddTokenApproval(token, owner, approved common.Address, tokenID *big.Int, block uint64, txIndex, logIndex uint) types.Log {
	l := types.Log{
		Address: token,
		Topics: []common.Hash{
			jarviscommon.ApprovalTopic,
			jarviscommon.AddressToTopic(owner),
			jarviscommon.AddressToTopic(approved),
			common.BigToHash(tokenID),
		},
		BlockNumber: block,
		TxHash:      txHash(block, txIndex),
		TxIndex:     txIndex,
		Index:       logIndex,
	}
	f.AddLog(l)
	return l
}

// AddApprovalForAll records ApprovalForAll(owner, operator, approved).
func (f *FakeReader) AddApprovalForAll(token, owner, operator common.Address, approved bool, block uint64, txIndex, logIndex uint) types.Log {
	data := make([]byte, 32)
	if approved {
		data[31] = 1
	}
	l := types.Log{
		Address: token,
		Topics: []common.Hash{
			jarviscommon.ApprovalForAllTopic,
			jarviscommon.AddressToTopic(owner),
			jarviscommon.AddressToTopic(operator),
		},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash(block, txIndex),
		TxIndex:     txIndex,
		Index:       logIndex,
	}
	f.AddLog(l)
	return l
}

func txHash(block uint64, txIndex uint) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(block<<16 | uint64(txIndex)))
}

// begin records the call and pops a queued failure. Callers hold f.mu.
func (f *FakeReader) begin(ctx context.Context, method string) error {
	f.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if queue := f.failures[method]; len(queue) > 0 {
		f.failures[method] = queue[1:]
		return queue[0]
	}
	return nil
}

func matchTopic(want []common.Hash, got common.Hash) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if w == got {
			return true
		}
	}
	return false
}

func (f *FakeReader) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, MethodFilterLogs); err != nil {
		return nil, err
	}
	f.queries = append(f.queries, q)

	from := uint64(0)
	if q.FromBlock != nil {
		from = q.FromBlock.Uint64()
	}
	to := f.Latest
	if q.ToBlock != nil {
		to = q.ToBlock.Uint64()
	}
	if to < from {
		return nil, nil
	}
	if f.MaxBlockRange > 0 && to-from+1 > f.MaxBlockRange {
		return nil, fmt.Errorf("block range is too large: %d > %d", to-from+1, f.MaxBlockRange)
	}

	result := []types.Log{}
	for _, l := range f.logs {
		if l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		if len(q.Addresses) > 0 {
			found := false
			for _, a := range q.Addresses {
				if a == l.Address {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if len(q.Topics) > len(l.Topics) {
			continue
		}
		matched := true
		for i, want := range q.Topics {
			if !matchTopic(want, l.Topics[i]) {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, l)
		}
	}
	if f.MaxLogsPerQuery > 0 && len(result) > f.MaxLogsPerQuery {
		return nil, fmt.Errorf("query returned more than %d results", f.MaxLogsPerQuery)
	}
	return result, nil
}

func (f *FakeReader) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, MethodCodeAt); err != nil {
		return nil, err
	}
	return f.code[account], nil
}

func (f *FakeReader) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, MethodHeaderByNumber); err != nil {
		return nil, err
	}
	var n uint64
	switch {
	case number == nil:
		n = f.Latest
	case number.Sign() < 0:
		switch rpc.BlockNumber(number.Int64()) {
		case rpc.FinalizedBlockNumber, rpc.SafeBlockNumber:
			if f.Finalized == 0 {
				return nil, errors.New("finalized block not found")
			}
			n = f.Finalized
		default:
			n = f.Latest
		}
	default:
		n = number.Uint64()
		if n > f.Latest {
			return nil, ethereum.NotFound
		}
	}
	ts, found := f.blockTimes[n]
	if !found {
		ts = f.BaseTime + 12*n
	}
	return &types.Header{Number: new(big.Int).SetUint64(n), Time: ts}, nil
}

func lookupMethod(selector []byte) (*abi.Method, error) {
	for _, a := range []*abi.ABI{jarviscommon.GetERC20ABI(), jarviscommon.GetERC721ABI()} {
		if m, err := a.MethodById(selector); err == nil {
			return m, nil
		}
	}
	return nil, RevertError{}
}

func (f *FakeReader) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(ctx, MethodCallContract); err != nil {
		return nil, err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, RevertError{}
	}
	token, found := f.tokens[*msg.To]
	if !found {
		// calls to accounts without code succeed with empty output
		return []byte{}, nil
	}
	method, err := lookupMethod(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, RevertError{}
	}

	switch method.Name {
	case "allowance":
		amount := token.allowances[[2]common.Address{args[0].(common.Address), args[1].(common.Address)}]
		if amount == nil {
			amount = big.NewInt(0)
		}
		return method.Outputs.Pack(amount)
	case "isApprovedForAll":
		return method.Outputs.Pack(token.operators[[2]common.Address{args[0].(common.Address), args[1].(common.Address)}])
	case "getApproved":
		spender, found := token.approved[args[0].(*big.Int).String()]
		if !found {
			return nil, RevertError{}
		}
		return method.Outputs.Pack(spender)
	case "supportsInterface":
		return method.Outputs.Pack(token.Interfaces[args[0].([4]byte)])
	case "decimals":
		if token.Decimals == nil {
			return nil, RevertError{}
		}
		return method.Outputs.Pack(*token.Decimals)
	case "symbol", "name":
		value := token.Symbol
		if method.Name == "name" {
			value = token.Name
		}
		if token.NoMetadata {
			return nil, RevertError{}
		}
		if token.Bytes32Metadata {
			var raw [32]byte
			copy(raw[:], value)
			return jarviscommon.GetBytes32ERC20ABI().Methods[method.Name].Outputs.Pack(raw)
		}
		return method.Outputs.Pack(value)
	}
	return nil, RevertError{}
}
