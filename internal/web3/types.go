package web3

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Receipt summarizes a mined transaction for human readable reporting.
type Receipt struct {
	Status      uint64 `json:"status"`
	BlockNumber string `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	From        string `json:"from"`
	To          string `json:"to"`
	TxHash      string `json:"tx_hash"`
}

// Succeeded reports whether the transaction executed without revert.
func (r Receipt) Succeeded() bool {
	return r.Status == types.ReceiptStatusSuccessful
}

// Client defines the narrow chain-client contract the wallet core
// invokes. Transaction construction and signing stay behind this
// interface; failures are recoverable per-operation errors.
type Client interface {
	// Name returns the configured chain name.
	Name() string
	// ChainID reports the chain identifier used for transaction signing.
	ChainID(ctx context.Context) (*big.Int, error)
	// GetBalance reads the native balance of an address.
	GetBalance(ctx context.Context, addr common.Address) (*big.Int, error)
	// SendValue transfers native value and returns the pending transaction.
	SendValue(ctx context.Context, auth *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error)
	// CallContract performs a read-only contract call and returns the
	// unpacked outputs.
	CallContract(ctx context.Context, contract common.Address, abiJSON, fn string, args ...any) ([]any, error)
	// WriteContract submits a state-changing contract call.
	WriteContract(ctx context.Context, auth *bind.TransactOpts, contract common.Address, abiJSON, fn string, args ...any) (*types.Transaction, error)
	// WaitForReceipt blocks until the transaction is mined.
	WaitForReceipt(ctx context.Context, tx *types.Transaction) (Receipt, error)
	// Close releases network connections held by the client.
	Close()
}
