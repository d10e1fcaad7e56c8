package toolset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"WalletMCP-Chain/internal/wallet"
)

const (
	testKeyA = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testKeyB = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

func testIdentities(t *testing.T) (*wallet.Identity, *wallet.Identity) {
	t.Helper()
	slots := []wallet.Slot{
		{EnvKey: "K1", ID: "seller-metamask", DisplayName: "Seller", Role: wallet.RoleSeller, Provider: wallet.ProviderMetaMask},
		{EnvKey: "K2", ID: "buyer-civic", DisplayName: "Buyer", Role: wallet.RoleBuyer, Provider: wallet.ProviderCivic},
	}
	env := map[string]string{"K1": testKeyA, "K2": testKeyB}
	identities := wallet.LoadIdentities(func(key string) string { return env[key] }, slots)
	if len(identities) != 2 {
		t.Fatalf("expected 2 identities, got %d", len(identities))
	}
	return identities[0], identities[1]
}

// stubBuilder 统计构建次数,可按需失败。
type stubBuilder struct {
	builds atomic.Int64
	fail   atomic.Bool
}

func (b *stubBuilder) Build(_ context.Context, identity *wallet.Identity) (*ToolSet, error) {
	b.builds.Add(1)
	if b.fail.Load() {
		return nil, errors.New("构建失败")
	}
	op := Operation{
		OpDescriptor: OpDescriptor{Name: "echo", Description: "回显"},
		Invoke: func(_ context.Context, _ map[string]any) (string, error) {
			return "ok:" + identity.ID, nil
		},
	}
	return New(identity.ID, []Operation{op}), nil
}

func TestEnsureForSkipsRedundantRebuild(t *testing.T) {
	seller, _ := testIdentities(t)
	builder := &stubBuilder{}
	s := NewSynchronizer(builder)

	ctx := context.Background()
	if !s.EnsureFor(ctx, seller) {
		t.Fatal("first EnsureFor should succeed")
	}
	if !s.EnsureFor(ctx, seller) {
		t.Fatal("second EnsureFor should succeed")
	}
	if got := builder.builds.Load(); got != 1 {
		t.Fatalf("expected exactly 1 build, got %d", got)
	}

	ts, boundID, ok := s.Bound()
	if !ok || boundID != seller.ID {
		t.Fatalf("unexpected bound state: %v %s", ok, boundID)
	}
	out, err := ts.Invoke(ctx, "echo", nil)
	if err != nil || out != "ok:seller-metamask" {
		t.Fatalf("invoke returned %q, %v", out, err)
	}
}

func TestEnsureForRebuildsOnIdentityChange(t *testing.T) {
	seller, buyer := testIdentities(t)
	builder := &stubBuilder{}
	s := NewSynchronizer(builder)

	ctx := context.Background()
	s.EnsureFor(ctx, seller)
	s.EnsureFor(ctx, buyer)
	if got := builder.builds.Load(); got != 2 {
		t.Fatalf("expected 2 builds, got %d", got)
	}
	if _, boundID, _ := s.Bound(); boundID != buyer.ID {
		t.Fatalf("expected bound to buyer, got %s", boundID)
	}
}

func TestForceRebuildAlwaysRebuilds(t *testing.T) {
	seller, _ := testIdentities(t)
	builder := &stubBuilder{}
	s := NewSynchronizer(builder)

	ctx := context.Background()
	s.EnsureFor(ctx, seller)
	// 身份 ID 未变也必须重建: 切换后凭证可能已经变化。
	if !s.ForceRebuild(ctx, seller) {
		t.Fatal("ForceRebuild should succeed")
	}
	if got := builder.builds.Load(); got != 2 {
		t.Fatalf("expected 2 builds after force rebuild, got %d", got)
	}
}

func TestBuildFailureClearsBoundState(t *testing.T) {
	seller, _ := testIdentities(t)
	builder := &stubBuilder{}
	s := NewSynchronizer(builder)

	ctx := context.Background()
	s.EnsureFor(ctx, seller)

	builder.fail.Store(true)
	if s.ForceRebuild(ctx, seller) {
		t.Fatal("expected rebuild to fail")
	}
	if _, _, ok := s.Bound(); ok {
		t.Fatal("bound state should be cleared after failure")
	}

	// 失败是可恢复的: 构建恢复后 EnsureFor 重新绑定。
	builder.fail.Store(false)
	if !s.EnsureFor(ctx, seller) {
		t.Fatal("EnsureFor should recover after builder failure")
	}
	if _, boundID, ok := s.Bound(); !ok || boundID != seller.ID {
		t.Fatal("expected bound state to be restored")
	}
}

func TestEnsureForCollapsesConcurrentRequests(t *testing.T) {
	seller, _ := testIdentities(t)
	builder := &stubBuilder{}
	synchronizer := NewSynchronizer(builder)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			synchronizer.EnsureFor(ctx, seller)
		}()
	}
	wg.Wait()

	if got := builder.builds.Load(); got < 1 || got > 2 {
		t.Fatalf("expected concurrent EnsureFor to collapse builds, got %d", got)
	}
}
