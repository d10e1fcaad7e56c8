// Package web3 houses blockchain connectivity utilities: the narrow
// chain-client contract the wallet core depends on, go-ethereum backed
// implementations, and multi-chain configuration helpers. It lets the
// dispatcher perform standardized interactions with EVM networks such
// as Ethereum, BSC, and Polygon without knowing RPC specifics.
package web3
