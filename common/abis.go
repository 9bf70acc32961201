package common

const erc20abi = `[
	{"name":"allowance","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]}
]`

const bytes32erc20abi = `[
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"bytes32"}]}
]`

const erc721abi = `[
	{"name":"getApproved","type":"function","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"address"}]},
	{"name":"isApprovedForAll","type":"function","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"supportsInterface","type":"function","stateMutability":"view",
	 "inputs":[{"name":"interfaceId","type":"bytes4"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]},
	{"name":"name","type":"function","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"string"}]}
]`

const erc1155abi = `[
	{"name":"isApprovedForAll","type":"function","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"supportsInterface","type":"function","stateMutability":"view",
	 "inputs":[{"name":"interfaceId","type":"bytes4"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`
