package wallet

import (
	"regexp"
	"strings"

	xerrors "WalletMCP-Chain/internal/errors"
	"WalletMCP-Chain/pkg/logger"

	"github.com/ethereum/go-ethereum/crypto"
)

// Slot 描述一个凭证配置槽位:从哪个环境变量读取 secret,
// 以及通过校验后注册为什么样的身份。
type Slot struct {
	EnvKey      string
	ID          string
	DisplayName string
	Role        Role
	Provider    Provider
}

// DefaultSlots 返回内置的槽位表。顺序即注册顺序;
// legacy 单私钥槽位排在最后,与其他身份走同一条加载路径。
func DefaultSlots() []Slot {
	return []Slot{
		{EnvKey: "SELLER_PRIVATE_KEY", ID: "seller-metamask", DisplayName: "Seller (MetaMask)", Role: RoleSeller, Provider: ProviderMetaMask},
		{EnvKey: "SELLER_CROSSMINT_PRIVATE_KEY", ID: "seller-crossmint", DisplayName: "Seller (Crossmint)", Role: RoleSeller, Provider: ProviderCrossmint},
		{EnvKey: "BUYER_PRIVATE_KEY", ID: "buyer-metamask", DisplayName: "Buyer (MetaMask)", Role: RoleBuyer, Provider: ProviderMetaMask},
		{EnvKey: "BUYER_CIVIC_PRIVATE_KEY", ID: "buyer-civic", DisplayName: "Buyer (Civic)", Role: RoleBuyer, Provider: ProviderCivic},
		{EnvKey: "FINANCIER_PRIVATE_KEY", ID: "financier-metamask", DisplayName: "Financier (MetaMask)", Role: RoleFinancier, Provider: ProviderMetaMask},
		{EnvKey: "PRIVATE_KEY", ID: "legacy", DisplayName: "Legacy Wallet", Role: RoleLegacy, Provider: ProviderLegacy},
	}
}

// secretPattern 是私钥的固定格式:0x 前缀加 64 位十六进制。
var secretPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// placeholders 收录模板文件里常见的占位值,命中即拒绝。
var placeholders = map[string]struct{}{
	"0x0000000000000000000000000000000000000000000000000000000000000000": {},
	"0xyour_private_key_here": {},
	"your_private_key_here":   {},
	"changeme":                {},
}

// ValidateSecret 校验凭证格式。格式不符或命中占位值时返回
// INVALID_CREDENTIAL,调用方应跳过该槽位而不是中断启动。
func ValidateSecret(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return xerrors.New(xerrors.CodeInvalidCredential, "凭证为空")
	}
	if _, ok := placeholders[strings.ToLower(trimmed)]; ok {
		return xerrors.New(xerrors.CodeInvalidCredential, "凭证是占位值")
	}
	if !secretPattern.MatchString(trimmed) {
		return xerrors.New(xerrors.CodeInvalidCredential, "凭证格式必须是 0x 前缀的 64 位十六进制")
	}
	return nil
}

// LoadIdentities 按槽位顺序读取配置源中的凭证,校验并推导地址,
// 返回通过校验的身份列表。校验失败只记录告警,不影响其他槽位。
// 同一 ID 出现多次时保留最先加载的一条。
func LoadIdentities(lookup func(string) string, slots []Slot) []*Identity {
	log := logger.Named("wallet")
	if lookup == nil {
		return nil
	}
	if len(slots) == 0 {
		slots = DefaultSlots()
	}

	seen := make(map[string]struct{}, len(slots))
	identities := make([]*Identity, 0, len(slots))
	for _, slot := range slots {
		raw := strings.TrimSpace(lookup(slot.EnvKey))
		if raw == "" {
			continue
		}
		if _, dup := seen[slot.ID]; dup {
			log.Warn("身份 ID 重复, 保留先加载的条目", "id", slot.ID, "slot", slot.EnvKey)
			continue
		}
		if err := ValidateSecret(raw); err != nil {
			log.Warn("凭证校验失败, 跳过该槽位", "slot", slot.EnvKey, "err", err)
			continue
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			log.Warn("凭证无法解析为私钥, 跳过该槽位", "slot", slot.EnvKey, "err", err)
			continue
		}
		identity := &Identity{
			ID:          slot.ID,
			DisplayName: slot.DisplayName,
			Role:        NormalizeRole(string(slot.Role)),
			Provider:    NormalizeProvider(string(slot.Provider)),
			Address:     crypto.PubkeyToAddress(key.PublicKey),
			secret:      raw,
			key:         key,
		}
		seen[slot.ID] = struct{}{}
		identities = append(identities, identity)
		log.Info("已注册钱包身份",
			"id", identity.ID,
			"role", identity.Role,
			"provider", identity.Provider,
			"address", identity.Address.Hex(),
			"secret", identity.Redacted(),
		)
	}
	if len(identities) == 0 {
		log.Warn("没有任何可用的钱包身份, 链上操作将全部返回 NO_ACTIVE_IDENTITY")
	}
	return identities
}
