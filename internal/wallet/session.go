package wallet

import (
	"fmt"
	"sync"

	xerrors "WalletMCP-Chain/internal/errors"
	"WalletMCP-Chain/pkg/logger"
)

// SessionOptions 控制启动时的默认选择策略。
type SessionOptions struct {
	// PriorityID 指定优先选中的身份 ID,优先级高于角色规则。
	PriorityID string
	// DefaultRole 在没有优先身份时指定默认角色,默认为 seller。
	DefaultRole Role
}

// Session 持有进程级的活跃身份状态。activeID 与 lastID 的每次变更
// 都在同一把锁内完成,读取方不会观察到指向不可解析 ID 的活跃状态。
type Session struct {
	mu       sync.Mutex
	registry *Registry
	activeID string
	lastID   string
}

// NewSession 构建会话并执行一次默认选择:
// 优先身份存在则选中;否则选第一个默认角色的身份;
// 再否则选加载顺序中的第一个;注册表为空时保持未选中。
func NewSession(registry *Registry, opts SessionOptions) *Session {
	s := &Session{registry: registry}
	defaultRole := opts.DefaultRole
	if defaultRole == "" {
		defaultRole = RoleSeller
	}

	var chosen *Identity
	if opts.PriorityID != "" {
		chosen = registry.GetByID(opts.PriorityID)
	}
	if chosen == nil {
		if byRole := registry.ListByRole(defaultRole); len(byRole) > 0 {
			chosen = byRole[0]
		}
	}
	if chosen == nil {
		if all := registry.ListAll(); len(all) > 0 {
			chosen = all[0]
		}
	}
	if chosen != nil {
		s.activeID = chosen.ID
		s.lastID = chosen.ID
		logger.Named("session").Info("默认选中钱包身份", "id", chosen.ID, "role", chosen.Role, "provider", chosen.Provider)
	}
	return s
}

// SwitchTo 切换到指定角色的身份。优先精确匹配 (role, provider),
// 缺失时回退到该角色在加载顺序中的第一个身份;两者都没有时返回
// IDENTITY_NOT_FOUND 且会话状态保持不变。返回值 exact 表示是否
// 命中了请求的托管方案,供调用方组织提示信息。
func (s *Session) SwitchTo(role Role, preferred Provider) (identity *Identity, exact bool, err error) {
	role = NormalizeRole(string(role))
	preferred = NormalizeProvider(string(preferred))

	var found *Identity
	if preferred != "" {
		found = s.registry.FindByRoleAndProvider(role, preferred)
	}
	exact = found != nil
	if found == nil {
		if byRole := s.registry.ListByRole(role); len(byRole) > 0 {
			found = byRole[0]
			exact = preferred == "" || found.Provider == preferred
		}
	}
	if found == nil {
		return nil, false, xerrors.New(xerrors.CodeIdentityNotFound,
			fmt.Sprintf("没有角色为 %s 的钱包身份", role),
			xerrors.WithMetadata("role", string(role)))
	}

	s.mu.Lock()
	s.activeID = found.ID
	s.lastID = found.ID
	s.mu.Unlock()

	logger.Audit().Info("钱包切换",
		"id", found.ID,
		"role", found.Role,
		"provider", found.Provider,
		"requested_provider", string(preferred),
		"exact", exact,
	)
	return found, exact, nil
}

// Current 解析活跃身份。未选中或 ID 无法解析时返回 nil。
func (s *Session) Current() *Identity {
	s.mu.Lock()
	id := s.activeID
	s.mu.Unlock()
	if id == "" {
		return nil
	}
	return s.registry.GetByID(id)
}

// ActiveID 返回当前活跃的身份 ID。
func (s *Session) ActiveID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// Clear 清除活跃身份,lastID 保留以支持恢复。
func (s *Session) Clear() {
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()
}

// RestoreLast 尝试恢复最近一次选中的身份。幂等:活跃身份已经可解析
// 时直接返回 true;活跃身份缺失而 lastID 可解析时恢复并返回 true;
// 两者都不可解析时返回 false。每次调用都重新解析,不消耗状态。
func (s *Session) RestoreLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID != "" && s.registry.GetByID(s.activeID) != nil {
		return true
	}
	if s.lastID != "" && s.registry.GetByID(s.lastID) != nil {
		s.activeID = s.lastID
		logger.Named("session").Info("已恢复上次选中的钱包身份", "id", s.lastID)
		return true
	}
	return false
}
