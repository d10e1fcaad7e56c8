package ethereum

import (
	"context"
	"math/big"
	"testing"
	"time"

	"WalletMCP-Chain/internal/web3"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
)

func TestClientValueTransfer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	oneEther := new(big.Int).Set(big.NewInt(params.Ether))
	backend := simulated.NewBackend(coretypes.GenesisAlloc{
		from: {Balance: new(big.Int).Mul(oneEther, big.NewInt(10))},
	})
	t.Cleanup(func() { backend.Close() })

	client := NewSimulatedClient("simulated", backend)
	t.Cleanup(client.Close)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("chain id: %v", err)
	}
	if chainID.Sign() <= 0 {
		t.Fatalf("unexpected chain id %s", chainID)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		t.Fatalf("new transactor: %v", err)
	}

	balance, err := client.GetBalance(ctx, from)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.Cmp(oneEther) < 0 {
		t.Fatalf("expected funded account, got %s", balance)
	}

	recipient := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tx, err := client.SendValue(ctx, auth, recipient, oneEther)
	if err != nil {
		t.Fatalf("send value: %v", err)
	}

	receipt, err := client.WaitForReceipt(ctx, tx)
	if err != nil {
		t.Fatalf("wait for receipt: %v", err)
	}
	if !receipt.Succeeded() {
		t.Fatalf("expected successful receipt, got status %d", receipt.Status)
	}
	if receipt.From != from.Hex() {
		t.Fatalf("unexpected sender %s", receipt.From)
	}
	if receipt.To != recipient.Hex() {
		t.Fatalf("unexpected recipient %s", receipt.To)
	}
	if receipt.TxHash != tx.Hash().Hex() {
		t.Fatalf("unexpected tx hash %s", receipt.TxHash)
	}

	got, err := client.GetBalance(ctx, recipient)
	if err != nil {
		t.Fatalf("get recipient balance: %v", err)
	}
	if got.Cmp(oneEther) != 0 {
		t.Fatalf("expected recipient balance %s, got %s", oneEther, got)
	}
}

func TestSendValueRejectsBadArguments(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)

	backend := simulated.NewBackend(coretypes.GenesisAlloc{
		from: {Balance: big.NewInt(params.Ether)},
	})
	t.Cleanup(func() { backend.Close() })

	client := NewSimulatedClient("simulated", backend)
	t.Cleanup(client.Close)

	ctx := context.Background()
	chainID, err := client.ChainID(ctx)
	if err != nil {
		t.Fatalf("chain id: %v", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		t.Fatalf("new transactor: %v", err)
	}

	if _, err := client.SendValue(ctx, nil, common.Address{}, big.NewInt(1)); err == nil {
		t.Fatal("expected error for nil transactor")
	}
	if _, err := client.SendValue(ctx, auth, common.Address{}, big.NewInt(0)); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}

var _ web3.Client = (*Client)(nil)
