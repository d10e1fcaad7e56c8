package wallet

// Registry 以加载顺序维护 ID 到身份的映射。启动后不再增删,
// 所有查询都是全函数:查不到返回空值而不是错误。
type Registry struct {
	order []*Identity
	byID  map[string]*Identity
}

// NewRegistry 从凭证加载结果构建注册表。重复 ID 保留先出现的条目。
func NewRegistry(identities []*Identity) *Registry {
	reg := &Registry{byID: make(map[string]*Identity, len(identities))}
	for _, identity := range identities {
		if identity == nil || identity.ID == "" {
			continue
		}
		if _, ok := reg.byID[identity.ID]; ok {
			continue
		}
		reg.byID[identity.ID] = identity
		reg.order = append(reg.order, identity)
	}
	return reg
}

// GetByID 精确查找。
func (r *Registry) GetByID(id string) *Identity {
	if r == nil {
		return nil
	}
	return r.byID[id]
}

// ListAll 按加载顺序返回全部身份。
func (r *Registry) ListAll() []*Identity {
	if r == nil {
		return nil
	}
	out := make([]*Identity, len(r.order))
	copy(out, r.order)
	return out
}

// ListByRole 按加载顺序返回指定角色的身份。
func (r *Registry) ListByRole(role Role) []*Identity {
	if r == nil {
		return nil
	}
	role = NormalizeRole(string(role))
	var out []*Identity
	for _, identity := range r.order {
		if identity.Role == role {
			out = append(out, identity)
		}
	}
	return out
}

// ListByProvider 按加载顺序返回指定托管方案的身份。
func (r *Registry) ListByProvider(provider Provider) []*Identity {
	if r == nil {
		return nil
	}
	provider = NormalizeProvider(string(provider))
	var out []*Identity
	for _, identity := range r.order {
		if identity.Provider == provider {
			out = append(out, identity)
		}
	}
	return out
}

// FindByRoleAndProvider 返回加载顺序中第一个同时匹配角色与托管方案
// 的身份,没有则返回 nil。
func (r *Registry) FindByRoleAndProvider(role Role, provider Provider) *Identity {
	if r == nil {
		return nil
	}
	role = NormalizeRole(string(role))
	provider = NormalizeProvider(string(provider))
	for _, identity := range r.order {
		if identity.Role == role && identity.Provider == provider {
			return identity
		}
	}
	return nil
}

// Len 返回注册的身份数量。
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
