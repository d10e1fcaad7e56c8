// Package notify 在链上操作完成后对外发布事件,供下游系统
// (结算、对账、监控)消费。发布失败不会影响操作本身的结果。
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event 描述一次已完成的链上操作。
type Event struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Tool      string `json:"tool"`
	WalletID  string `json:"wallet_id"`
	Chain     string `json:"chain"`
	TxHash    string `json:"tx_hash,omitempty"`
	Detail    string `json:"detail"`
	CreatedAt int64  `json:"created_at"`
}

// NewEvent 生成一条带 ID 与时间戳的事件。
func NewEvent(kind, tool, walletID, chain, txHash, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Tool:      tool,
		WalletID:  walletID,
		Chain:     chain,
		TxHash:    txHash,
		Detail:    detail,
		CreatedAt: time.Now().Unix(),
	}
}

// Publisher 抽象事件发布端。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher 丢弃所有事件,是未配置发布端时的默认实现。
type NopPublisher struct{}

// Publish 实现 Publisher 接口。
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close 实现 Publisher 接口。
func (NopPublisher) Close() error { return nil }
