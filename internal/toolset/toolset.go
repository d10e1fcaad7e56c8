// Package toolset models the identity-bound on-chain operation bundle
// and keeps exactly one live bundle aligned with the active wallet.
package toolset

import (
	"context"
	"fmt"

	xerrors "WalletMCP-Chain/internal/errors"
	"WalletMCP-Chain/internal/wallet"
)

// ParamKind 是操作参数类型的标签联合。未知类型一律归入 ParamOther,
// 转换到请求模式时按透传处理而不是报错。
type ParamKind string

const (
	ParamString ParamKind = "string"
	ParamNumber ParamKind = "number"
	ParamBool   ParamKind = "boolean"
	ParamOther  ParamKind = "other"
)

// KindOf 把外部描述符里的类型字符串归一化为 ParamKind。
func KindOf(raw string) ParamKind {
	switch raw {
	case "string":
		return ParamString
	case "number", "integer", "float":
		return ParamNumber
	case "boolean", "bool":
		return ParamBool
	default:
		return ParamOther
	}
}

// ParamSpec 描述操作的一个参数。
type ParamSpec struct {
	Name        string
	Kind        ParamKind
	Description string
	Required    bool
}

// OpDescriptor 描述一个可调用的链上操作。
type OpDescriptor struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// OpFunc 是操作的执行函数。返回的字符串是面向人的结果描述。
type OpFunc func(ctx context.Context, args map[string]any) (string, error)

// Operation 把描述符和执行函数绑在一起。
type Operation struct {
	OpDescriptor
	Invoke OpFunc
}

// ToolSet 是绑定到单个身份的操作集合。boundID 记录构建时绑定的
// 身份 ID,调用方在使用前必须确认它与当前活跃身份一致。
type ToolSet struct {
	boundID string
	ops     []Operation
	index   map[string]int
}

// New 构建一个工具集。
func New(boundID string, ops []Operation) *ToolSet {
	ts := &ToolSet{boundID: boundID, ops: ops, index: make(map[string]int, len(ops))}
	for i, op := range ops {
		ts.index[op.Name] = i
	}
	return ts
}

// BoundID 返回构建时绑定的身份 ID。
func (t *ToolSet) BoundID() string {
	if t == nil {
		return ""
	}
	return t.boundID
}

// Operations 返回全部操作描述符,顺序与构建时一致。
func (t *ToolSet) Operations() []OpDescriptor {
	if t == nil {
		return nil
	}
	out := make([]OpDescriptor, len(t.ops))
	for i, op := range t.ops {
		out[i] = op.OpDescriptor
	}
	return out
}

// Invoke 按名字调用操作。
func (t *ToolSet) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	if t == nil {
		return "", xerrors.New(xerrors.CodeInitializationFailure, "工具集尚未构建")
	}
	i, ok := t.index[name]
	if !ok {
		return "", xerrors.New(xerrors.CodeNotFound, fmt.Sprintf("未知的链上操作: %s", name))
	}
	return t.ops[i].Invoke(ctx, args)
}

// Builder 是外部的工具构建协作方:给定一个身份,返回绑定该身份
// 签名能力的工具集。构建被视为昂贵操作,由 Synchronizer 统一去重。
type Builder interface {
	Build(ctx context.Context, identity *wallet.Identity) (*ToolSet, error)
}
