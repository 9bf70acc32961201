package approval_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/approvalscan/approval"
	jarviscommon "github.com/tranvictor/approvalscan/common"
	"github.com/tranvictor/approvalscan/util/reader/fakereader"
)

func TestDecodeLogShapes(t *testing.T) {
	fake := fakereader.New(100)

	erc20, err := approval.DecodeLog(fake.AddApproval(usdc, owner, router, amount(500), 10, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, approval.ERC20, erc20.Standard)
	assert.Equal(t, owner, erc20.Owner)
	assert.Equal(t, router, erc20.Spender)
	assert.Equal(t, "500", erc20.Value.String())
	assert.Equal(t, approval.ScopeAll, erc20.Scope())
	assert.False(t, erc20.IsRevocation())

	nft, err := approval.DecodeLog(fake.AddTokenApproval(bayc, owner, router, amount(42), 11, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, approval.ERC721, nft.Standard)
	assert.True(t, nft.IsSingleToken())
	assert.Equal(t, "42", nft.Scope())

	all, err := approval.DecodeLog(fake.AddApprovalForAll(bayc, owner, seaport, true, 12, 0, 0))
	require.NoError(t, err)
	assert.True(t, all.ForAll)
	assert.True(t, all.Approved)
	assert.Equal(t, approval.ScopeAll, all.Scope())

	off, err := approval.DecodeLog(fake.AddApprovalForAll(bayc, owner, seaport, false, 13, 0, 0))
	require.NoError(t, err)
	assert.True(t, off.IsRevocation())
}

func TestDecodeLogRevocations(t *testing.T) {
	fake := fakereader.New(100)
	zero, err := approval.DecodeLog(fake.AddApproval(usdc, owner, router, amount(0), 10, 0, 0))
	require.NoError(t, err)
	assert.True(t, zero.IsRevocation())

	cleared, err := approval.DecodeLog(fake.AddTokenApproval(bayc, owner, jarviscommon.ZeroAddress, amount(1), 10, 0, 1))
	require.NoError(t, err)
	assert.True(t, cleared.IsRevocation())
}

func TestDecodeLogRejectsMalformed(t *testing.T) {
	_, err := approval.DecodeLog(types.Log{Topics: []common.Hash{jarviscommon.ApprovalTopic}})
	assert.ErrorIs(t, err, approval.ErrMalformedLog)

	// three topics but the amount missing
	_, err = approval.DecodeLog(types.Log{Topics: []common.Hash{
		jarviscommon.ApprovalTopic,
		jarviscommon.AddressToTopic(owner),
		jarviscommon.AddressToTopic(router),
	}})
	assert.ErrorIs(t, err, approval.ErrMalformedLog)

	_, err = approval.DecodeLog(types.Log{Topics: []common.Hash{
		common.HexToHash("0x01"),
		jarviscommon.AddressToTopic(owner),
		jarviscommon.AddressToTopic(router),
	}, Data: make([]byte, 32)})
	assert.ErrorIs(t, err, approval.ErrMalformedLog)
}

func TestEventOrdering(t *testing.T) {
	base := approval.Event{BlockNumber: 10, TxIndex: 2, LogIndex: 5}
	assert.True(t, approval.Event{BlockNumber: 11}.After(base))
	assert.True(t, approval.Event{BlockNumber: 10, TxIndex: 3}.After(base))
	assert.True(t, approval.Event{BlockNumber: 10, TxIndex: 2, LogIndex: 6}.After(base))
	assert.False(t, base.After(base))
	assert.False(t, approval.Event{BlockNumber: 9, TxIndex: 99, LogIndex: 99}.After(base))
}
