package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ChainAddress is a 20 byte account or contract address. Its textual form is
// always the EIP-55 checksum produced by Hex(); two addresses are equal when
// their bytes are equal regardless of the casing they were parsed from.
type ChainAddress = common.Address

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ZeroAddress    = common.Address{}
)

// AddressValidation is the result of validating a free form address string.
type AddressValidation struct {
	Valid    bool   `json:"valid"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

func isMixedCase(hex string) bool {
	body := hex[2:]
	return body != strings.ToLower(body) && body != strings.ToUpper(body)
}

// ParseAddress accepts a 0x prefixed 40 hex character string in lower, upper
// or checksummed case. Mixed case input must carry a valid EIP-55 checksum.
func ParseAddress(input string) (ChainAddress, error) {
	s := strings.TrimSpace(input)
	if !addressPattern.MatchString(s) {
		return ZeroAddress, fmt.Errorf("%w: %q is not 0x followed by 40 hex characters", ErrInvalidAddress, input)
	}
	addr := common.HexToAddress(s)
	if isMixedCase(s) && addr.Hex() != s {
		return ZeroAddress, fmt.Errorf("%w: %q has an invalid checksum", ErrInvalidAddress, input)
	}
	return addr, nil
}

func ValidateAddress(input string) AddressValidation {
	addr, err := ParseAddress(input)
	if err != nil {
		s := strings.TrimSpace(input)
		if addressPattern.MatchString(s) {
			return AddressValidation{Error: "Invalid checksum. Address may be mistyped."}
		}
		return AddressValidation{Error: "Invalid address format. Must be 0x followed by 40 hex characters."}
	}
	return AddressValidation{Valid: true, Checksum: addr.Hex()}
}

// ShortAddress renders 0x1234...abcd, used when a spender has no known name.
func ShortAddress(addr ChainAddress) string {
	hex := addr.Hex()
	return fmt.Sprintf("%s...%s", hex[:6], hex[len(hex)-4:])
}

func HexToAddress(hex string) common.Address {
	return common.HexToAddress(hex)
}

// AddressToTopic left pads addr to 32 bytes so it can be used as an indexed
// event topic filter.
func AddressToTopic(addr ChainAddress) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

// TopicToAddress takes the low 20 bytes of an indexed address topic.
func TopicToAddress(topic common.Hash) ChainAddress {
	return common.BytesToAddress(topic.Bytes()[12:])
}
