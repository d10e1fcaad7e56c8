package api

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"WalletMCP-Chain/internal/history"
	"WalletMCP-Chain/internal/notify"
	"WalletMCP-Chain/internal/toolset"
	"WalletMCP-Chain/internal/wallet"
	"WalletMCP-Chain/pkg/logger"

	"github.com/mark3labs/mcp-go/server"
)

// serverName 与版本一起出现在 MCP 初始化握手里。
const (
	serverName    = "walletmcp-chain"
	serverVersion = "0.3.0"
)

// Options 描述服务的传输方式与依赖。
type Options struct {
	// Transport 取值 stdio 或 http。
	Transport string
	// Address 仅在 http 传输下生效。
	Address string
	// ChainName 写入操作记录与事件,标识默认链。
	ChainName string
}

// Server 是面向 MCP 客户端的操作分发器。
type Server struct {
	opts     Options
	registry *wallet.Registry
	session  *wallet.Session
	sync     *toolset.Synchronizer
	store    history.Store
	notifier notify.Publisher

	mcp *server.MCPServer

	mu      sync.Mutex
	dynamic []string
}

// NewServer 构造 MCP 服务实例。
func NewServer(opts Options, registry *wallet.Registry, session *wallet.Session, synchronizer *toolset.Synchronizer, store history.Store, notifier notify.Publisher) *Server {
	if store == nil {
		store, _ = history.NewMemoryStore("")
	}
	if notifier == nil {
		notifier = notify.NopPublisher{}
	}
	s := &Server{
		opts:     opts,
		registry: registry,
		session:  session,
		sync:     synchronizer,
		store:    store,
		notifier: notifier,
		mcp: server.NewMCPServer(serverName, serverVersion,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions("链上操作工具集绑定当前活跃钱包。没有活跃钱包时请先调用 switch_wallet。"),
		),
	}
	s.registerWalletTools()
	return s
}

// Start 启动 MCP 服务,直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	// 启动时为默认选中的身份预构建工具集;失败只是降级,不阻止启动。
	if identity := s.session.Current(); identity != nil {
		if s.sync.EnsureFor(ctx, identity) {
			s.refreshDynamicTools()
		}
	}

	log := logger.Named("api")
	switch s.opts.Transport {
	case "", "stdio":
		log.Info("MCP 服务启动", "transport", "stdio")
		stdio := server.NewStdioServer(s.mcp)
		return stdio.Listen(ctx, os.Stdin, os.Stdout)
	case "http":
		log.Info("MCP 服务启动", "transport", "http", "address", s.opts.Address)
		httpServer := server.NewStreamableHTTPServer(s.mcp)

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.Start(s.opts.Address); err != nil {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
			return ctx.Err()
		case err := <-errCh:
			return err
		}
	default:
		return errors.New("未知的 MCP 传输方式: " + s.opts.Transport)
	}
}

// refreshDynamicTools 把当前绑定工具集的操作重新注册为 MCP 工具。
// 旧的动态工具先整体删除,mcp-go 会向客户端发送 list_changed 通知。
func (s *Server) refreshDynamicTools() {
	ts, _, ok := s.sync.Bound()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.dynamic) > 0 {
		s.mcp.DeleteTools(s.dynamic...)
		s.dynamic = nil
	}
	if !ok {
		return
	}
	for _, desc := range ts.Operations() {
		tool := translateOp(desc)
		s.mcp.AddTool(tool, s.dynamicHandler(desc.Name))
		s.dynamic = append(s.dynamic, desc.Name)
	}
	logger.Named("api").Info("已注册链上操作工具", "count", len(s.dynamic), "bound", ts.BoundID())
}
