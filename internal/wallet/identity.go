package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Role 表示身份在交易中扮演的角色。取值是开放的字符串枚举，
// 未知角色同样可以被注册和切换。
type Role string

const (
	RoleSeller    Role = "seller"
	RoleBuyer     Role = "buyer"
	RoleFinancier Role = "financier"
	RoleLegacy    Role = "legacy"
)

// Provider 表示身份所属的托管方案。
type Provider string

const (
	ProviderMetaMask  Provider = "metamask"
	ProviderCrossmint Provider = "crossmint"
	ProviderCivic     Provider = "civic"
	ProviderLegacy    Provider = "legacy"
)

// NormalizeRole 统一角色名的大小写与空白。
func NormalizeRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// NormalizeProvider 统一托管方案名的大小写与空白。
func NormalizeProvider(raw string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(raw)))
}

// Identity 表示一条可用的签名身份。secret 一旦通过校验便不再改变，
// Address 在加载时从 secret 推导一次，整个生命周期保持稳定。
type Identity struct {
	ID          string
	DisplayName string
	Role        Role
	Provider    Provider
	Address     common.Address

	secret string
	key    *ecdsa.PrivateKey
}

// PrivateKey 返回解析后的签名私钥,仅供工具构建层使用。
func (id *Identity) PrivateKey() *ecdsa.PrivateKey {
	if id == nil {
		return nil
	}
	return id.key
}

// Redacted 返回可安全写入日志的凭证摘要,完整 secret 永远不会被输出。
func (id *Identity) Redacted() string {
	if id == nil || len(id.secret) < 10 {
		return "<empty>"
	}
	return id.secret[:6] + "..." + id.secret[len(id.secret)-4:]
}

// String 便于日志与人类可读输出。
func (id *Identity) String() string {
	if id == nil {
		return "<nil identity>"
	}
	return fmt.Sprintf("%s (%s/%s, %s)", id.ID, id.Role, id.Provider, id.Address.Hex())
}
