package common

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// Approval(address indexed owner, address indexed spender, uint256 value) for
	// ERC20 and Approval(address indexed owner, address indexed approved,
	// uint256 indexed tokenId) for ERC721 share the same signature hash.
	ApprovalTopic = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
	// ApprovalForAll(address indexed owner, address indexed operator, bool
	// approved), identical for ERC721 and ERC1155.
	ApprovalForAllTopic = crypto.Keccak256Hash([]byte("ApprovalForAll(address,address,bool)"))
)

const (
	ERC165InterfaceID  = "0x01ffc9a7"
	ERC721InterfaceID  = "0x80ac58cd"
	ERC1155InterfaceID = "0xd9b67a26"
)

var (
	abiOnce      sync.Once
	erc20ABI     abi.ABI
	erc721ABI    abi.ABI
	erc1155ABI   abi.ABI
	bytes32ERC20 abi.ABI
)

func mustParseABI(data string) abi.ABI {
	result, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		panic(err)
	}
	return result
}

func loadABIs() {
	abiOnce.Do(func() {
		erc20ABI = mustParseABI(erc20abi)
		erc721ABI = mustParseABI(erc721abi)
		erc1155ABI = mustParseABI(erc1155abi)
		bytes32ERC20 = mustParseABI(bytes32erc20abi)
	})
}

func GetERC20ABI() *abi.ABI {
	loadABIs()
	return &erc20ABI
}

func GetERC721ABI() *abi.ABI {
	loadABIs()
	return &erc721ABI
}

func GetERC1155ABI() *abi.ABI {
	loadABIs()
	return &erc1155ABI
}

// GetBytes32ERC20ABI is for early tokens (MKR, SAI) whose name and symbol
// return bytes32 instead of string.
func GetBytes32ERC20ABI() *abi.ABI {
	loadABIs()
	return &bytes32ERC20
}

func InterfaceID(hex string) [4]byte {
	var id [4]byte
	copy(id[:], common.FromHex(hex))
	return id
}
