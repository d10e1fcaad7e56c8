// Package api 把钱包会话核心与链上工具集暴露为 MCP 服务:
// 静态注册钱包管理工具,动态注册绑定当前身份的链上操作,
// 并负责把操作描述符翻译成 MCP 的请求模式。
package api
