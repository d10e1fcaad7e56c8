package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"WalletMCP-Chain/internal/web3"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name    string
	RPCURL  string
	ChainID int64
	Notes   string
}

// backend mirrors the subset of ethclient methods the wallet core
// needs. Both *ethclient.Client and simulated.Client satisfy it.
type backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// committer is implemented by the simulated backend; production
// clients never commit blocks themselves.
type committer interface {
	Commit() common.Hash
}

// Client implements the web3.Client interface for EVM compatible chains.
type Client struct {
	name      string
	notes     string
	rpcClient *gethrpc.Client
	backend   backend
	commit    committer

	mu      sync.Mutex
	chainID *big.Int
}

// NewClient dials the configured RPC endpoint and returns a ready-to-use client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("未配置以太坊 RPC 地址")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("连接以太坊节点失败: %w", err)
	}

	client := &Client{
		name:      cfg.Name,
		notes:     cfg.Notes,
		rpcClient: rpcClient,
		backend:   ethclient.NewClient(rpcClient),
	}
	if cfg.ChainID > 0 {
		client.chainID = big.NewInt(cfg.ChainID)
	}
	return client, nil
}

// NewSimulatedClient wraps a go-ethereum simulated backend for testing purposes.
func NewSimulatedClient(name string, sim *simulated.Backend) *Client {
	return &Client{
		name:    name,
		notes:   "simulated backend",
		backend: sim.Client(),
		commit:  sim,
	}
}

// Name returns the configured chain name.
func (c *Client) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Close releases network connections held by the client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

// ChainID resolves and caches the chain identifier.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}

	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链 ID 失败: %w", err)
	}
	c.mu.Lock()
	c.chainID = new(big.Int).Set(id)
	c.mu.Unlock()
	return id, nil
}

// GetBalance reads the native balance of the given address.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	balance, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("查询余额失败: %w", err)
	}
	return balance, nil
}

// SendValue signs and broadcasts a plain value transfer.
func (c *Client) SendValue(ctx context.Context, auth *bind.TransactOpts, to common.Address, amount *big.Int) (*coretypes.Transaction, error) {
	if auth == nil {
		return nil, errors.New("未提供交易签名器")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, errors.New("转账金额必须大于 0")
	}

	nonce, err := c.backend.PendingNonceAt(ctx, auth.From)
	if err != nil {
		return nil, fmt.Errorf("查询 nonce 失败: %w", err)
	}
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询 gas 价格失败: %w", err)
	}

	tx := coretypes.NewTransaction(nonce, to, amount, 21_000, gasPrice, nil)
	signed, err := auth.Signer(auth.From, tx)
	if err != nil {
		return nil, fmt.Errorf("签名交易失败: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("广播交易失败: %w", err)
	}
	if c.commit != nil {
		c.commit.Commit()
	}
	return signed, nil
}

// CallContract performs a read-only contract call and returns the
// unpacked outputs.
func (c *Client) CallContract(ctx context.Context, contract common.Address, abiJSON, fn string, args ...any) ([]any, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("解析 ABI 失败: %w", err)
	}

	bound := bind.NewBoundContract(contract, parsed, c.backend, c.backend, c.backend)
	var out []any
	if err := bound.Call(&bind.CallOpts{Context: ctx}, &out, fn, args...); err != nil {
		return nil, fmt.Errorf("合约调用 %s 失败: %w", fn, err)
	}
	return out, nil
}

// WriteContract submits a state-changing contract call using the
// provided transact opts.
func (c *Client) WriteContract(ctx context.Context, auth *bind.TransactOpts, contract common.Address, abiJSON, fn string, args ...any) (*coretypes.Transaction, error) {
	if auth == nil {
		return nil, errors.New("未提供交易签名器")
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("解析 ABI 失败: %w", err)
	}

	originalCtx := auth.Context
	auth.Context = ctx
	defer func() { auth.Context = originalCtx }()

	bound := bind.NewBoundContract(contract, parsed, c.backend, c.backend, c.backend)
	tx, err := bound.Transact(auth, fn, args...)
	if err != nil {
		return nil, fmt.Errorf("合约写入 %s 失败: %w", fn, err)
	}
	if c.commit != nil {
		c.commit.Commit()
	}
	return tx, nil
}

// WaitForReceipt blocks until the transaction is mined and converts
// the receipt into the reporting form.
func (c *Client) WaitForReceipt(ctx context.Context, tx *coretypes.Transaction) (web3.Receipt, error) {
	if tx == nil {
		return web3.Receipt{}, errors.New("交易不能为空")
	}
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return web3.Receipt{}, fmt.Errorf("等待交易回执失败: %w", err)
	}

	from := ""
	if sender, err := coretypes.Sender(coretypes.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		from = sender.Hex()
	}
	to := ""
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return web3.Receipt{
		Status:      receipt.Status,
		BlockNumber: "0x" + receipt.BlockNumber.Text(16),
		GasUsed:     receipt.GasUsed,
		From:        from,
		To:          to,
		TxHash:      tx.Hash().Hex(),
	}, nil
}
