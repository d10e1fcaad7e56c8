package toolset

import (
	"context"
	"sync"

	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Synchronizer 维护唯一一个存活的工具集,并保证它绑定的身份与当前
// 活跃身份一致,同时尽量避免重复的昂贵构建。构建失败是可恢复的:
// 清空绑定状态后身份与会话功能继续工作,只有依赖工具集的操作降级。
type Synchronizer struct {
	builder Builder
	group   singleflight.Group

	mu      sync.Mutex
	bound   *ToolSet
	boundID string
}

// NewSynchronizer 创建同步器。
func NewSynchronizer(builder Builder) *Synchronizer {
	return &Synchronizer{builder: builder}
}

// Bound 返回当前绑定的工具集与身份 ID。调用方必须在使用前立即
// 检查 boundID 是否仍与活跃身份一致,不得跨越阻塞点缓存检查结果。
func (s *Synchronizer) Bound() (*ToolSet, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound, s.boundID, s.bound != nil
}

// EnsureFor 确保工具集绑定到给定身份。已一致时直接返回 true;
// 不一致时重建。并发的重复请求通过 singleflight 合并为一次构建。
func (s *Synchronizer) EnsureFor(ctx context.Context, identity *wallet.Identity) bool {
	if identity == nil {
		return false
	}
	s.mu.Lock()
	if s.bound != nil && s.boundID == identity.ID {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	_, err, _ := s.group.Do(identity.ID, func() (any, error) {
		// 进入 singleflight 后再查一次,躲开排队期间完成的构建。
		s.mu.Lock()
		if s.bound != nil && s.boundID == identity.ID {
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()
		return nil, s.rebuild(ctx, identity)
	})
	return err == nil
}

// ForceRebuild 无条件重建工具集,即使绑定的身份 ID 未变。
// 切换钱包后必须调用:凭证已经变化,哪怕请求形态没有变。
func (s *Synchronizer) ForceRebuild(ctx context.Context, identity *wallet.Identity) bool {
	if identity == nil {
		return false
	}
	s.group.Forget(identity.ID)
	return s.rebuild(ctx, identity) == nil
}

// Reset 清空绑定状态。
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	s.bound = nil
	s.boundID = ""
	s.mu.Unlock()
}

func (s *Synchronizer) rebuild(ctx context.Context, identity *wallet.Identity) error {
	ts, err := s.builder.Build(ctx, identity)
	if err != nil {
		s.mu.Lock()
		s.bound = nil
		s.boundID = ""
		s.mu.Unlock()
		logger.Named("toolset").Warn("工具集构建失败, 清空绑定状态", "identity", identity.ID, "err", err)
		return err
	}
	s.mu.Lock()
	s.bound = ts
	s.boundID = identity.ID
	s.mu.Unlock()
	logger.Named("toolset").Info("工具集已绑定", "identity", identity.ID, "operations", len(ts.Operations()))
	return nil
}
