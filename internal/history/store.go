// Package history 记录每次链上操作的结果,形成可查询的审计轨迹。
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record 表示一次操作的落库结构。
type Record struct {
	ID        string `json:"id"`
	Tool      string `json:"tool"`
	WalletID  string `json:"wallet_id"`
	Chain     string `json:"chain"`
	TxHash    string `json:"tx_hash,omitempty"`
	Status    string `json:"status"`
	Detail    string `json:"detail"`
	CreatedAt int64  `json:"created_at"`
}

// NewRecord 生成一条带 ID 和时间戳的记录。
func NewRecord(tool, walletID, chain, status, detail string) Record {
	return Record{
		ID:        uuid.NewString(),
		Tool:      tool,
		WalletID:  walletID,
		Chain:     chain,
		Status:    status,
		Detail:    detail,
		CreatedAt: time.Now().Unix(),
	}
}

// Store 抽象操作记录的持久化接口。
type Store interface {
	Append(ctx context.Context, record Record) error
	ListLatest(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
