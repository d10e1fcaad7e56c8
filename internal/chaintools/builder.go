// Package chaintools 是工具构建协作方:给定一个钱包身份,
// 构建绑定该身份签名能力的链上操作集合。
package chaintools

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	xerrors "WalletMCP-Chain/internal/errors"
	"WalletMCP-Chain/internal/toolset"
	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/internal/web3"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Builder 基于链客户端构建身份绑定的工具集。
type Builder struct {
	client web3.Client
}

// NewBuilder 创建构建器。
func NewBuilder(client web3.Client) *Builder {
	return &Builder{client: client}
}

// Build 实现 toolset.Builder。每次构建都会重新解析链 ID 并派生
// 新的签名器,因此切换身份后必须强制重建。
func (b *Builder) Build(ctx context.Context, identity *wallet.Identity) (*toolset.ToolSet, error) {
	if identity == nil || identity.PrivateKey() == nil {
		return nil, xerrors.New(xerrors.CodeToolsetFailure, "缺少可用的签名身份")
	}
	if b.client == nil {
		return nil, xerrors.New(xerrors.CodeToolsetFailure, "缺少链客户端")
	}

	chainID, err := b.client.ChainID(ctx)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeToolsetFailure, err, "解析链 ID 失败")
	}
	auth, err := bind.NewKeyedTransactorWithChainID(identity.PrivateKey(), chainID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeToolsetFailure, err, "创建交易签名器失败")
	}

	return toolset.New(identity.ID, b.operations(identity, auth)), nil
}

func (b *Builder) operations(identity *wallet.Identity, auth *bind.TransactOpts) []toolset.Operation {
	self := identity.Address
	return []toolset.Operation{
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "get_balance",
				Description: "查询地址的原生代币余额(wei), 省略地址时查询当前钱包",
				Params: []toolset.ParamSpec{
					{Name: "address", Kind: toolset.ParamString, Description: "要查询的地址, 可省略"},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				addr, err := addressArg(args, "address", self)
				if err != nil {
					return "", err
				}
				balance, err := b.client.GetBalance(ctx, addr)
				if err != nil {
					return "", chainErr(err)
				}
				return fmt.Sprintf("%s 的余额为 %s wei", addr.Hex(), balance.String()), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "get_token_balance",
				Description: "查询 ERC-20 代币余额",
				Params: []toolset.ParamSpec{
					{Name: "token", Kind: toolset.ParamString, Description: "代币合约地址", Required: true},
					{Name: "address", Kind: toolset.ParamString, Description: "要查询的地址, 可省略"},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				token, err := addressArg(args, "token", common.Address{})
				if err != nil {
					return "", err
				}
				owner, err := addressArg(args, "address", self)
				if err != nil {
					return "", err
				}
				out, err := b.client.CallContract(ctx, token, erc20ABI, "balanceOf", owner)
				if err != nil {
					return "", chainErr(err)
				}
				balance, ok := firstBig(out)
				if !ok {
					return "", xerrors.New(xerrors.CodeChainFailure, "balanceOf 返回值无法解析")
				}
				symbol := tokenSymbol(ctx, b.client, token)
				detail := fmt.Sprintf("%s 持有 %s %s (基础单位)", owner.Hex(), balance.String(), symbol)
				if decimals, ok := tokenDecimals(ctx, b.client, token); ok {
					detail += fmt.Sprintf(", decimals=%d", decimals)
				}
				return detail, nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "transfer_native",
				Description: "向目标地址转账原生代币",
				Params: []toolset.ParamSpec{
					{Name: "to", Kind: toolset.ParamString, Description: "收款地址", Required: true},
					{Name: "amount_wei", Kind: toolset.ParamString, Description: "转账金额, 十进制 wei", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				to, err := addressArg(args, "to", common.Address{})
				if err != nil {
					return "", err
				}
				amount, err := bigArg(args, "amount_wei")
				if err != nil {
					return "", err
				}
				tx, err := b.client.SendValue(ctx, auth, to, amount)
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				return formatReceipt("原生转账", receipt), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "transfer_token",
				Description: "转账 ERC-20 代币",
				Params: []toolset.ParamSpec{
					{Name: "token", Kind: toolset.ParamString, Description: "代币合约地址", Required: true},
					{Name: "to", Kind: toolset.ParamString, Description: "收款地址", Required: true},
					{Name: "amount", Kind: toolset.ParamString, Description: "转账数量, 十进制基础单位", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				token, err := addressArg(args, "token", common.Address{})
				if err != nil {
					return "", err
				}
				to, err := addressArg(args, "to", common.Address{})
				if err != nil {
					return "", err
				}
				amount, err := bigArg(args, "amount")
				if err != nil {
					return "", err
				}
				tx, err := b.client.WriteContract(ctx, auth, token, erc20ABI, "transfer", to, amount)
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				return formatReceipt("代币转账", receipt), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "mint_erc721",
				Description: "在 ERC-721 合约上铸造一枚 NFT",
				Params: []toolset.ParamSpec{
					{Name: "contract", Kind: toolset.ParamString, Description: "NFT 合约地址", Required: true},
					{Name: "to", Kind: toolset.ParamString, Description: "接收地址, 省略时铸给当前钱包"},
					{Name: "token_uri", Kind: toolset.ParamString, Description: "元数据 URI", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				contract, err := addressArg(args, "contract", common.Address{})
				if err != nil {
					return "", err
				}
				to, err := addressArg(args, "to", self)
				if err != nil {
					return "", err
				}
				uri, err := stringArg(args, "token_uri")
				if err != nil {
					return "", err
				}
				tx, err := b.client.WriteContract(ctx, auth, contract, erc721ABI, "safeMint", to, uri)
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				return formatReceipt("ERC-721 铸造", receipt), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "mint_erc1155",
				Description: "在 ERC-1155 合约上铸造指定数量的资产",
				Params: []toolset.ParamSpec{
					{Name: "contract", Kind: toolset.ParamString, Description: "合约地址", Required: true},
					{Name: "to", Kind: toolset.ParamString, Description: "接收地址, 省略时铸给当前钱包"},
					{Name: "token_id", Kind: toolset.ParamString, Description: "资产 ID, 十进制", Required: true},
					{Name: "amount", Kind: toolset.ParamNumber, Description: "铸造数量", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				contract, err := addressArg(args, "contract", common.Address{})
				if err != nil {
					return "", err
				}
				to, err := addressArg(args, "to", self)
				if err != nil {
					return "", err
				}
				tokenID, err := bigArg(args, "token_id")
				if err != nil {
					return "", err
				}
				amount, err := numberArg(args, "amount")
				if err != nil {
					return "", err
				}
				tx, err := b.client.WriteContract(ctx, auth, contract, erc1155ABI, "mint", to, tokenID, amount, []byte{})
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				return formatReceipt("ERC-1155 铸造", receipt), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "fractionalize",
				Description: "将 NFT 存入份额金库并发行份额代币",
				Params: []toolset.ParamSpec{
					{Name: "vault", Kind: toolset.ParamString, Description: "金库合约地址", Required: true},
					{Name: "contract", Kind: toolset.ParamString, Description: "NFT 合约地址", Required: true},
					{Name: "token_id", Kind: toolset.ParamString, Description: "NFT ID, 十进制", Required: true},
					{Name: "shares", Kind: toolset.ParamString, Description: "发行份额数量, 十进制基础单位", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				vault, err := addressArg(args, "vault", common.Address{})
				if err != nil {
					return "", err
				}
				contract, err := addressArg(args, "contract", common.Address{})
				if err != nil {
					return "", err
				}
				tokenID, err := bigArg(args, "token_id")
				if err != nil {
					return "", err
				}
				shares, err := bigArg(args, "shares")
				if err != nil {
					return "", err
				}
				tx, err := b.client.WriteContract(ctx, auth, vault, fractionVaultABI, "fractionalize", contract, tokenID, shares)
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				return formatReceipt("NFT 份额化", receipt), nil
			},
		},
		{
			OpDescriptor: toolset.OpDescriptor{
				Name:        "redeem_fractions",
				Description: "销毁全部份额并赎回金库中的 NFT",
				Params: []toolset.ParamSpec{
					{Name: "vault", Kind: toolset.ParamString, Description: "金库合约地址", Required: true},
					{Name: "vault_id", Kind: toolset.ParamString, Description: "金库条目 ID, 十进制", Required: true},
				},
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				vault, err := addressArg(args, "vault", common.Address{})
				if err != nil {
					return "", err
				}
				vaultID, err := bigArg(args, "vault_id")
				if err != nil {
					return "", err
				}
				// 赎回前尽力读一次份额数,只用于结果描述。
				var burned string
				if out, err := b.client.CallContract(ctx, vault, fractionVaultABI, "sharesOf", vaultID); err == nil {
					if shares, ok := firstBig(out); ok {
						burned = shares.String()
					}
				}
				tx, err := b.client.WriteContract(ctx, auth, vault, fractionVaultABI, "redeem", vaultID)
				if err != nil {
					return "", chainErr(err)
				}
				receipt, err := b.client.WaitForReceipt(ctx, tx)
				if err != nil {
					return "", chainErr(err)
				}
				detail := formatReceipt("份额赎回", receipt)
				if burned != "" {
					detail += fmt.Sprintf(" shares=%s", burned)
				}
				return detail, nil
			},
		},
	}
}

// firstBig 取合约调用首个返回值并断言为 *big.Int。
func firstBig(out []any) (*big.Int, bool) {
	if len(out) == 0 {
		return nil, false
	}
	v, ok := out[0].(*big.Int)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// tokenDecimals 是尽力而为的查询,合约缺失 decimals 时不报错。
func tokenDecimals(ctx context.Context, client web3.Client, token common.Address) (uint8, bool) {
	out, err := client.CallContract(ctx, token, erc20ABI, "decimals")
	if err != nil || len(out) == 0 {
		return 0, false
	}
	d, ok := out[0].(uint8)
	return d, ok
}

// tokenSymbol 是尽力而为的查询,失败时退回占位符。
func tokenSymbol(ctx context.Context, client web3.Client, token common.Address) string {
	out, err := client.CallContract(ctx, token, erc20ABI, "symbol")
	if err != nil || len(out) == 0 {
		return "token"
	}
	if s, ok := out[0].(string); ok && s != "" {
		return s
	}
	return "token"
}

func formatReceipt(label string, receipt web3.Receipt) string {
	status := "成功"
	if !receipt.Succeeded() {
		status = "失败(revert)"
	}
	return fmt.Sprintf("%s%s: tx=%s block=%s gas=%d from=%s to=%s",
		label, status, receipt.TxHash, receipt.BlockNumber, receipt.GasUsed, receipt.From, receipt.To)
}

func chainErr(err error) error {
	if _, ok := xerrors.From(err); ok {
		return err
	}
	return xerrors.Wrap(xerrors.CodeChainFailure, err, "链上操作失败")
}

func stringArg(args map[string]any, name string) (string, error) {
	raw, ok := args[name]
	if !ok {
		return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("缺少参数 %s", name))
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 必须是非空字符串", name))
	}
	return strings.TrimSpace(s), nil
}

func addressArg(args map[string]any, name string, fallback common.Address) (common.Address, error) {
	raw, ok := args[name]
	if !ok || raw == "" {
		if fallback == (common.Address{}) {
			return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("缺少地址参数 %s", name))
		}
		return fallback, nil
	}
	s, ok := raw.(string)
	if !ok {
		return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 必须是地址字符串", name))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if fallback == (common.Address{}) {
			return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("缺少地址参数 %s", name))
		}
		return fallback, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 不是合法地址: %s", name, s))
	}
	return common.HexToAddress(s), nil
}

// bigArg 解析十进制大整数参数。金额一律用字符串承载,避免 JSON
// number 的精度丢失。
func bigArg(args map[string]any, name string) (*big.Int, error) {
	s, err := stringArg(args, name)
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(s, 10)
	if !ok || value.Sign() < 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 必须是非负十进制整数", name))
	}
	return value, nil
}

// numberArg 解析 JSON number 形式的小整数参数。
func numberArg(args map[string]any, name string) (*big.Int, error) {
	raw, ok := args[name]
	if !ok {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("缺少参数 %s", name))
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 必须是非负整数", name))
		}
		return big.NewInt(int64(v)), nil
	case string:
		return bigArg(args, name)
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("参数 %s 类型不支持", name))
	}
}
