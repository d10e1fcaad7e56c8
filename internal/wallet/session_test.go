package wallet

import (
	"testing"

	xerrors "WalletMCP-Chain/internal/errors"
)

func TestSessionDefaultSelection(t *testing.T) {
	reg := testRegistry(t)

	t.Run("priority id wins", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{PriorityID: "buyer-civic"})
		if got := s.Current(); got == nil || got.ID != "buyer-civic" {
			t.Fatalf("expected priority identity, got %v", got)
		}
	})

	t.Run("default role when no priority", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{})
		if got := s.Current(); got == nil || got.ID != "seller-metamask" {
			t.Fatalf("expected first seller, got %v", got)
		}
	})

	t.Run("first identity when role absent", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{DefaultRole: "financier"})
		if got := s.Current(); got == nil || got.ID != "seller-metamask" {
			t.Fatalf("expected first identity in load order, got %v", got)
		}
	})

	t.Run("empty registry leaves session unset", func(t *testing.T) {
		s := NewSession(NewRegistry(nil), SessionOptions{})
		if got := s.Current(); got != nil {
			t.Fatalf("expected no active identity, got %v", got)
		}
		if _, ok := s.ActiveID(); ok {
			t.Fatal("expected ActiveID to report unset")
		}
	})
}

func TestSessionSwitchTo(t *testing.T) {
	reg := testRegistry(t)

	t.Run("exact match honored", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{})
		identity, exact, err := s.SwitchTo(RoleSeller, ProviderCrossmint)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exact {
			t.Fatal("expected exact provider match")
		}
		if identity.Provider != ProviderCrossmint {
			t.Fatalf("unexpected provider %s", identity.Provider)
		}
		if current := s.Current(); current == nil || current.ID != identity.ID {
			t.Fatalf("Current disagrees with SwitchTo: %v", current)
		}
	})

	t.Run("provider fallback reported", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{})
		identity, exact, err := s.SwitchTo(RoleBuyer, ProviderMetaMask)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exact {
			t.Fatal("expected fallback to be reported as non-exact")
		}
		if identity.ID != "buyer-civic" {
			t.Fatalf("expected fallback to first buyer, got %s", identity.ID)
		}
	})

	t.Run("unknown role leaves state unchanged", func(t *testing.T) {
		s := NewSession(reg, SessionOptions{})
		before, _ := s.ActiveID()
		_, _, err := s.SwitchTo("auditor", "")
		if err == nil {
			t.Fatal("expected IdentityNotFound")
		}
		e, ok := xerrors.From(err)
		if !ok || e.Code() != xerrors.CodeIdentityNotFound {
			t.Fatalf("unexpected error: %v", err)
		}
		after, _ := s.ActiveID()
		if before != after {
			t.Fatalf("active identity changed on failed switch: %s -> %s", before, after)
		}
	})
}

func TestSessionRestoreLastIsIdempotent(t *testing.T) {
	reg := testRegistry(t)
	s := NewSession(reg, SessionOptions{})

	if _, _, err := s.SwitchTo(RoleBuyer, ProviderCivic); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	s.Clear()
	if got := s.Current(); got != nil {
		t.Fatalf("expected cleared session, got %v", got)
	}

	// 连续两次恢复都应成功并得到同一身份:解析是重查而不是消耗。
	if !s.RestoreLast() {
		t.Fatal("first RestoreLast should succeed")
	}
	first := s.Current()
	if !s.RestoreLast() {
		t.Fatal("second RestoreLast should also succeed")
	}
	second := s.Current()
	if first == nil || second == nil || first.ID != second.ID || first.ID != "buyer-civic" {
		t.Fatalf("RestoreLast not idempotent: %v vs %v", first, second)
	}
}

func TestSessionRestoreLastWithEmptyRegistry(t *testing.T) {
	s := NewSession(NewRegistry(nil), SessionOptions{})
	if s.RestoreLast() {
		t.Fatal("expected RestoreLast to fail with no identities")
	}
}
