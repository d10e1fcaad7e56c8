package wallet

import "testing"

// testRegistry 构建一个含 seller×2 与 buyer×1 的注册表。
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	slots := []Slot{
		{EnvKey: "K1", ID: "seller-metamask", DisplayName: "Seller (MetaMask)", Role: RoleSeller, Provider: ProviderMetaMask},
		{EnvKey: "K2", ID: "seller-crossmint", DisplayName: "Seller (Crossmint)", Role: RoleSeller, Provider: ProviderCrossmint},
		{EnvKey: "K3", ID: "buyer-civic", DisplayName: "Buyer (Civic)", Role: RoleBuyer, Provider: ProviderCivic},
	}
	env := map[string]string{"K1": testKeyA, "K2": testKeyB, "K3": testKeyC}
	identities := LoadIdentities(envOf(env), slots)
	if len(identities) != 3 {
		t.Fatalf("expected 3 identities, got %d", len(identities))
	}
	return NewRegistry(identities)
}

func TestRegistryLookups(t *testing.T) {
	reg := testRegistry(t)

	if got := reg.GetByID("seller-crossmint"); got == nil || got.Provider != ProviderCrossmint {
		t.Fatalf("GetByID returned %v", got)
	}
	if got := reg.GetByID("missing"); got != nil {
		t.Fatalf("expected nil for unknown id, got %v", got)
	}
	if got := reg.ListAll(); len(got) != 3 {
		t.Fatalf("ListAll returned %d identities", len(got))
	}
	if got := reg.ListByProvider(ProviderCivic); len(got) != 1 || got[0].ID != "buyer-civic" {
		t.Fatalf("ListByProvider returned %v", got)
	}
	if got := reg.ListByRole("financier"); got != nil {
		t.Fatalf("expected empty slice for unknown role, got %v", got)
	}
}

func TestRegistryRoleProviderRoundTrip(t *testing.T) {
	reg := testRegistry(t)

	// 同角色不同托管方案: 精确查找命中确切条目。
	exact := reg.FindByRoleAndProvider(RoleSeller, ProviderCrossmint)
	if exact == nil || exact.ID != "seller-crossmint" {
		t.Fatalf("expected exact crossmint match, got %v", exact)
	}

	// listByRole 保持加载顺序。
	sellers := reg.ListByRole(RoleSeller)
	if len(sellers) != 2 {
		t.Fatalf("expected 2 sellers, got %d", len(sellers))
	}
	if sellers[0].ID != "seller-metamask" || sellers[1].ID != "seller-crossmint" {
		t.Fatalf("sellers out of load order: %s, %s", sellers[0].ID, sellers[1].ID)
	}

	// 不存在的组合返回 nil 而不是错误。
	if got := reg.FindByRoleAndProvider(RoleSeller, ProviderCivic); got != nil {
		t.Fatalf("expected nil for absent combination, got %v", got)
	}
}

func TestRegistryNormalizesInput(t *testing.T) {
	reg := testRegistry(t)
	if got := reg.FindByRoleAndProvider(" Seller ", " CROSSMINT "); got == nil {
		t.Fatal("expected lookup to normalize case and whitespace")
	}
}
