package history

import (
	"context"
	"testing"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	store, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, tool := range []string{"get_balance", "transfer_native", "mint_erc721"} {
		record := NewRecord(tool, "seller-metamask", "sepolia", "success", "ok")
		if record.ID == "" || record.CreatedAt == 0 {
			t.Fatalf("record missing id or timestamp: %+v", record)
		}
		if err := store.Append(ctx, record); err != nil {
			t.Fatalf("append %s: %v", tool, err)
		}
	}

	records, err := store.ListLatest(ctx, 2)
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// 最新的记录排在最前。
	if records[0].Tool != "mint_erc721" || records[1].Tool != "transfer_native" {
		t.Fatalf("unexpected ordering: %s, %s", records[0].Tool, records[1].Tool)
	}

	all, err := store.ListLatest(ctx, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestMemoryStoreReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	first := NewRecord("get_balance", "buyer-civic", "sepolia", "success", "余额 1 wei")
	second := NewRecord("transfer_token", "buyer-civic", "sepolia", "failed", "余额不足")
	if err := store.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, second); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.ListLatest(ctx, 10)
	if err != nil {
		t.Fatalf("list latest: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 restored records, got %d", len(records))
	}
	if records[0].ID != second.ID || records[1].ID != first.ID {
		t.Fatalf("restored ordering mismatch: %s, %s", records[0].ID, records[1].ID)
	}
	if records[1].Detail != first.Detail {
		t.Fatalf("restored detail mismatch: %q", records[1].Detail)
	}
}
