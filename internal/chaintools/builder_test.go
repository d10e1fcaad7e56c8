package chaintools

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/internal/web3/ethereum"

	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func testIdentity(t *testing.T) *wallet.Identity {
	t.Helper()
	slots := []wallet.Slot{
		{EnvKey: "K1", ID: "seller-metamask", DisplayName: "Seller", Role: wallet.RoleSeller, Provider: wallet.ProviderMetaMask},
	}
	identities := wallet.LoadIdentities(func(string) string { return testKey }, slots)
	if len(identities) != 1 {
		t.Fatalf("expected 1 identity, got %d", len(identities))
	}
	return identities[0]
}

func testClient(t *testing.T, identity *wallet.Identity) *ethereum.Client {
	t.Helper()
	key, err := crypto.HexToECDSA(strings.TrimPrefix(testKey, "0x"))
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	if from != identity.Address {
		t.Fatalf("identity address mismatch: %s vs %s", from.Hex(), identity.Address.Hex())
	}

	backend := simulated.NewBackend(coretypes.GenesisAlloc{
		from: {Balance: new(big.Int).Mul(big.NewInt(params.Ether), big.NewInt(10))},
	})
	t.Cleanup(func() { backend.Close() })

	client := ethereum.NewSimulatedClient("simulated", backend)
	t.Cleanup(client.Close)
	return client
}

func TestBuildOperationCatalog(t *testing.T) {
	identity := testIdentity(t)
	builder := NewBuilder(testClient(t, identity))

	ts, err := builder.Build(context.Background(), identity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if ts.BoundID() != identity.ID {
		t.Fatalf("bound to %s, want %s", ts.BoundID(), identity.ID)
	}

	want := []string{
		"get_balance",
		"get_token_balance",
		"transfer_native",
		"transfer_token",
		"mint_erc721",
		"mint_erc1155",
		"fractionalize",
		"redeem_fractions",
	}
	descs := ts.Operations()
	if len(descs) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(descs))
	}
	for i, name := range want {
		if descs[i].Name != name {
			t.Fatalf("operation %d = %s, want %s", i, descs[i].Name, name)
		}
	}
}

func TestGetBalanceDefaultsToSelf(t *testing.T) {
	identity := testIdentity(t)
	builder := NewBuilder(testClient(t, identity))

	ctx := context.Background()
	ts, err := builder.Build(ctx, identity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	detail, err := ts.Invoke(ctx, "get_balance", nil)
	if err != nil {
		t.Fatalf("invoke get_balance: %v", err)
	}
	if !strings.Contains(detail, identity.Address.Hex()) {
		t.Fatalf("expected own address in detail, got %s", detail)
	}
	if !strings.Contains(detail, "wei") {
		t.Fatalf("expected wei amount in detail, got %s", detail)
	}
}

func TestTransferNativeEndToEnd(t *testing.T) {
	identity := testIdentity(t)
	client := testClient(t, identity)
	builder := NewBuilder(client)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ts, err := builder.Build(ctx, identity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	recipient := "0x00000000000000000000000000000000000000aa"
	detail, err := ts.Invoke(ctx, "transfer_native", map[string]any{
		"to":         recipient,
		"amount_wei": "1000000000000000000",
	})
	if err != nil {
		t.Fatalf("invoke transfer_native: %v", err)
	}
	if !strings.Contains(detail, "tx=0x") {
		t.Fatalf("expected tx hash in detail, got %s", detail)
	}
	if !strings.Contains(detail, "成功") {
		t.Fatalf("expected success status, got %s", detail)
	}
}

func TestInvokeRejectsBadArguments(t *testing.T) {
	identity := testIdentity(t)
	builder := NewBuilder(testClient(t, identity))

	ctx := context.Background()
	ts, err := builder.Build(ctx, identity)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// 缺少必填参数。
	if _, err := ts.Invoke(ctx, "transfer_native", map[string]any{"to": "0x00000000000000000000000000000000000000aa"}); err == nil {
		t.Fatal("expected error for missing amount_wei")
	}
	// 金额不是十进制整数。
	if _, err := ts.Invoke(ctx, "transfer_native", map[string]any{
		"to":         "0x00000000000000000000000000000000000000aa",
		"amount_wei": "1.5e18",
	}); err == nil {
		t.Fatal("expected error for non-integer amount")
	}
	// 地址格式非法。
	if _, err := ts.Invoke(ctx, "get_balance", map[string]any{"address": "not-an-address"}); err == nil {
		t.Fatal("expected error for malformed address")
	}
}

func TestBuildRequiresSigningIdentity(t *testing.T) {
	identity := testIdentity(t)
	builder := NewBuilder(testClient(t, identity))

	if _, err := builder.Build(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil identity")
	}
}
