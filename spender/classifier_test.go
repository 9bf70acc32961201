package spender_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/spender"
	"github.com/tranvictor/approvalscan/util/addrbook"
	"github.com/tranvictor/approvalscan/util/explorers"
	"github.com/tranvictor/approvalscan/util/reader"
	"github.com/tranvictor/approvalscan/util/reader/fakereader"
)

var (
	router  = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	unknown = common.HexToAddress("0x00000000000000000000000000000000dEaDBeef")
	eoa     = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

type fakeVerifier struct {
	sources map[common.Address]explorers.ContractSource
	err     error
}

func (f fakeVerifier) ContractSource(ctx context.Context, addr common.Address) (explorers.ContractSource, error) {
	if f.err != nil {
		return explorers.ContractSource{}, f.err
	}
	return f.sources[addr], nil
}

func newFake() *fakereader.FakeReader {
	fake := fakereader.New(100)
	fake.SetCode(router, []byte{0x60})
	fake.SetCode(unknown, []byte{0x60})
	return fake
}

func TestClassifyKnownVerifiedAndEOA(t *testing.T) {
	fake := newFake()
	verifier := fakeVerifier{sources: map[common.Address]explorers.ContractSource{
		router:  {Name: "UniswapV2Router02", Verified: true},
		unknown: {},
	}}
	book := addrbook.Map{"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2: Router 2"}
	c := spender.NewClassifier(reader.NewContracts(fake), verifier, book, 1, 4, nil)

	infos, err := c.ClassifyAll(context.Background(), []common.Address{router, unknown, eoa, router}, 100)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, spender.Info{Address: router, IsContract: true, Verified: true, Name: "Uniswap V2: Router 2"}, infos[router])
	assert.Equal(t, spender.Info{Address: unknown, IsContract: true}, infos[unknown])
	assert.Equal(t, spender.Info{Address: eoa}, infos[eoa])
}

func TestClassifyUsesExplorerNameWhenUnknown(t *testing.T) {
	fake := newFake()
	verifier := fakeVerifier{sources: map[common.Address]explorers.ContractSource{
		unknown: {Name: "Vault", Verified: true},
	}}
	c := spender.NewClassifier(reader.NewContracts(fake), verifier, addrbook.Map{}, 1, 4, nil)
	info := c.Classify(context.Background(), unknown, big.NewInt(100))
	assert.Equal(t, "Vault", info.Name)
	assert.True(t, info.Verified)
}

func TestClassifyDegradesOnFailure(t *testing.T) {
	fake := newFake()
	fake.FailNext(fakereader.MethodCodeAt, fmt.Errorf("%w: eth_getCode", jarviscommon.ErrChainUnavailable))
	c := spender.NewClassifier(reader.NewContracts(fake), fakeVerifier{}, addrbook.Map{}, 1, 4, nil)

	info := c.Classify(context.Background(), eoa, big.NewInt(100))
	assert.Equal(t, spender.Degraded(eoa), info)
	assert.True(t, info.IsContract)
	assert.False(t, info.Verified)
	assert.Empty(t, info.Name)
}

func TestClassifyDegradedKnownSpenderHasNoName(t *testing.T) {
	fake := newFake()
	fake.FailNext(fakereader.MethodCodeAt, fmt.Errorf("%w: eth_getCode", jarviscommon.ErrChainUnavailable))
	book := addrbook.Map{"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2: Router 2"}
	c := spender.NewClassifier(reader.NewContracts(fake), fakeVerifier{}, book, 1, 4, nil)

	info := c.Classify(context.Background(), router, big.NewInt(100))
	assert.Equal(t, spender.Degraded(router), info)
	assert.Empty(t, info.Name)
}

func TestClassifyExplorerOutage(t *testing.T) {
	fake := newFake()
	c := spender.NewClassifier(
		reader.NewContracts(fake),
		fakeVerifier{err: errors.New("explorer returned http 502")},
		addrbook.Map{"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2: Router 2"},
		1, 4, nil,
	)
	assert.True(t, c.Classify(context.Background(), router, nil).Verified, "directory entries stay verified")
	assert.False(t, c.Classify(context.Background(), unknown, nil).Verified)
}

func TestClassifyWithoutVerifier(t *testing.T) {
	fake := newFake()
	c := spender.NewClassifier(reader.NewContracts(fake), nil, addrbook.Map{}, 1, 4, nil)
	info := c.Classify(context.Background(), unknown, nil)
	assert.True(t, info.IsContract)
	assert.False(t, info.Verified)
}
