package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	xerrors "WalletMCP-Chain/internal/errors"
	"WalletMCP-Chain/internal/history"
	"WalletMCP-Chain/internal/notify"
	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/pkg/logger"

	"github.com/mark3labs/mcp-go/mcp"
)

// walletSummary 是钱包身份的对外展现,绝不包含凭证。
type walletSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Provider    string `json:"provider"`
	Address     string `json:"address"`
	Active      bool   `json:"active"`
}

// registerWalletTools 注册静态的钱包管理工具。
func (s *Server) registerWalletTools() {
	s.mcp.AddTool(mcp.NewTool("list_wallets",
		mcp.WithDescription("列出全部已注册的钱包身份及当前活跃身份"),
	), s.handleListWallets)

	s.mcp.AddTool(mcp.NewTool("get_active_wallet",
		mcp.WithDescription("查看当前活跃的钱包身份"),
	), s.handleGetActiveWallet)

	s.mcp.AddTool(mcp.NewTool("switch_wallet",
		mcp.WithDescription("按角色切换活跃钱包, 可选指定托管方案; 切换后链上工具自动重建"),
		mcp.WithString("role", mcp.Required(), mcp.Description("目标角色, 如 seller/buyer/financier")),
		mcp.WithString("provider", mcp.Description("期望的托管方案, 如 metamask/crossmint/civic; 可省略")),
	), s.handleSwitchWallet)

	s.mcp.AddTool(mcp.NewTool("list_operations",
		mcp.WithDescription("查看最近的链上操作记录"),
		mcp.WithNumber("limit", mcp.Description("返回条数, 默认 20")),
	), s.handleListOperations)
}

func (s *Server) handleListWallets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	activeID, _ := s.session.ActiveID()
	summaries := s.walletSummaries(activeID)
	if len(summaries) == 0 {
		return mcp.NewToolResultText("没有任何已注册的钱包身份。请通过环境变量配置凭证后重启。"), nil
	}
	encoded, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(encoded)), nil
}

func (s *Server) handleGetActiveWallet(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity, errResult := s.requireActive()
	if errResult != nil {
		return errResult, nil
	}
	summary := walletSummary{
		ID:          identity.ID,
		DisplayName: identity.DisplayName,
		Role:        string(identity.Role),
		Provider:    string(identity.Provider),
		Address:     identity.Address.Hex(),
		Active:      true,
	}
	encoded, _ := json.MarshalIndent(summary, "", "  ")
	return mcp.NewToolResultText(string(encoded)), nil
}

func (s *Server) handleSwitchWallet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	role, err := req.RequireString("role")
	if err != nil {
		return mcp.NewToolResultError("缺少 role 参数"), nil
	}
	provider := req.GetString("provider", "")

	identity, exact, err := s.session.SwitchTo(wallet.NormalizeRole(role), wallet.NormalizeProvider(provider))
	if err != nil {
		return s.identityNotFoundResult(role), nil
	}

	// 凭证已经变化,必须强制重建,即使身份 ID 恰好与旧绑定相同。
	rebuilt := s.sync.ForceRebuild(ctx, identity)
	s.refreshDynamicTools()

	var b strings.Builder
	fmt.Fprintf(&b, "已切换到 %s (%s/%s), 地址 %s。",
		identity.DisplayName, identity.Role, identity.Provider, identity.Address.Hex())
	if provider != "" && !exact {
		fmt.Fprintf(&b, " 注意: 未找到托管方案 %s, 已回退到 %s。", provider, identity.Provider)
	}
	if !rebuilt {
		b.WriteString(" 链上工具集构建失败, 相关操作暂不可用, 钱包管理功能不受影响。")
	}

	s.record(ctx, history.NewRecord("switch_wallet", identity.ID, s.opts.ChainName, "ok", b.String()))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListOperations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	records, err := s.store.ListLatest(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("查询操作记录失败: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("暂无操作记录。"), nil
	}
	encoded, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(encoded)), nil
}

// dynamicHandler 为一个绑定身份的链上操作生成 MCP 处理函数。
func (s *Server) dynamicHandler(name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		identity, errResult := s.requireActive()
		if errResult != nil {
			return errResult, nil
		}

		if !s.sync.EnsureFor(ctx, identity) {
			return mcp.NewToolResultError("链上工具集构建失败, 请稍后重试或重新 switch_wallet。钱包管理功能不受影响。"), nil
		}
		// 绑定检查必须在使用前的最后一刻进行:挂起期间可能发生切换。
		ts, boundID, ok := s.sync.Bound()
		if !ok || boundID != identity.ID {
			return mcp.NewToolResultError("活跃钱包在操作期间发生了切换, 请重试。"), nil
		}

		detail, err := ts.Invoke(ctx, name, req.GetArguments())
		if err != nil {
			msg := humanizeErr(err)
			s.record(ctx, history.NewRecord(name, identity.ID, s.opts.ChainName, "error", msg))
			return mcp.NewToolResultError(msg), nil
		}

		record := history.NewRecord(name, identity.ID, s.opts.ChainName, "ok", detail)
		record.TxHash = extractTxHash(detail)
		s.record(ctx, record)

		if record.TxHash != "" {
			event := notify.NewEvent("chain_operation", name, identity.ID, s.opts.ChainName, record.TxHash, detail)
			if err := s.notifier.Publish(ctx, event); err != nil {
				logger.Named("api").Warn("事件发布失败", "tool", name, "err", err)
			}
		}
		return mcp.NewToolResultText(detail), nil
	}
}

// requireActive 解析活跃身份。没有活跃身份时先尝试恢复上次选中的
// 身份,仍然没有则返回结构化的 NO_ACTIVE_IDENTITY 提示。
func (s *Server) requireActive() (*wallet.Identity, *mcp.CallToolResult) {
	identity := s.session.Current()
	if identity == nil && s.session.RestoreLast() {
		identity = s.session.Current()
	}
	if identity == nil {
		payload := map[string]any{
			"error":   string(xerrors.CodeNoActiveIdentity),
			"message": "当前没有活跃的钱包身份, 请先调用 switch_wallet 选择角色。",
			"wallets": s.walletSummaries(""),
		}
		encoded, _ := json.MarshalIndent(payload, "", "  ")
		return nil, mcp.NewToolResultError(string(encoded))
	}
	return identity, nil
}

func (s *Server) identityNotFoundResult(role string) *mcp.CallToolResult {
	activeID, _ := s.session.ActiveID()
	payload := map[string]any{
		"error":   string(xerrors.CodeIdentityNotFound),
		"message": fmt.Sprintf("没有角色为 %s 的钱包身份, 会话保持不变。", role),
		"wallets": s.walletSummaries(activeID),
	}
	encoded, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultError(string(encoded))
}

func (s *Server) walletSummaries(activeID string) []walletSummary {
	identities := s.registry.ListAll()
	summaries := make([]walletSummary, 0, len(identities))
	for _, identity := range identities {
		summaries = append(summaries, walletSummary{
			ID:          identity.ID,
			DisplayName: identity.DisplayName,
			Role:        string(identity.Role),
			Provider:    string(identity.Provider),
			Address:     identity.Address.Hex(),
			Active:      identity.ID == activeID,
		})
	}
	return summaries
}

// record 落库失败只记日志,不影响操作结果。
func (s *Server) record(ctx context.Context, record history.Record) {
	if err := s.store.Append(ctx, record); err != nil {
		logger.Named("api").Warn("写入操作记录失败", "tool", record.Tool, "err", err)
	}
}

// humanizeErr 把内部错误转成适合返回给 MCP 客户端的文案。
func humanizeErr(err error) string {
	if e, ok := xerrors.From(err); ok {
		return e.Error()
	}
	return err.Error()
}

// extractTxHash 从操作结果文本里找出 tx= 后面的交易哈希。
func extractTxHash(detail string) string {
	for _, field := range strings.Fields(detail) {
		if strings.HasPrefix(field, "tx=") {
			return strings.TrimPrefix(field, "tx=")
		}
	}
	return ""
}
