package chain

// CredentialABI is the subset of the credential NFT contract the service uses.
const CredentialABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"verificationProof","type":"string"}],
	 "outputs":[]}
]`

// VaultABI is the subset of the vault contract the service uses.
const VaultABI = `[
	{"type":"function","name":"hasValidKYCNFT","stateMutability":"view",
	 "inputs":[{"name":"user","type":"address"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"deposit","stateMutability":"payable",
	 "inputs":[],"outputs":[]}
]`
