package networks

import (
	"fmt"
	"os"
	"strings"
)

// Nodes returns the RPC endpoints to use for n. A non empty node variable in
// the environment replaces the built-in public nodes.
func Nodes(n Network) map[string]string {
	if custom := strings.TrimSpace(os.Getenv(n.GetNodeVariableName())); custom != "" {
		result := map[string]string{}
		for i, url := range strings.Split(custom, ",") {
			url = strings.TrimSpace(url)
			if url == "" {
				continue
			}
			result[fmt.Sprintf("%s-custom-%d", n.GetName(), i)] = url
		}
		if len(result) > 0 {
			return result
		}
	}
	return n.GetDefaultNodes()
}

// AddressURL links to the explorer page of addr.
func AddressURL(n Network, addr string) string {
	return fmt.Sprintf("%s/address/%s", n.GetBlockExplorerURL(), addr)
}

// RevokeURL links to the revocation tool for every approval of wallet.
func RevokeURL(n Network, wallet string) string {
	return fmt.Sprintf("%s/%s?chainId=%d", n.GetRevokeBaseURL(), wallet, n.GetChainID())
}
