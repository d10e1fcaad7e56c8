package api

import (
	"encoding/json"

	"WalletMCP-Chain/internal/toolset"

	"github.com/mark3labs/mcp-go/mcp"
)

// schemaProperty 是生成 JSON Schema 时的单个属性。类型为空表示
// 透传:不约束取值,对应 ParamOther。
type schemaProperty struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// schemaObject 是工具入参的顶层对象模式。
type schemaObject struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// translateKind 把参数类型标签映射到 JSON Schema 的类型字符串。
// 未知类型返回空串,表示不做约束。
func translateKind(kind toolset.ParamKind) string {
	switch kind {
	case toolset.ParamString:
		return "string"
	case toolset.ParamNumber:
		return "number"
	case toolset.ParamBool:
		return "boolean"
	default:
		return ""
	}
}

// translateOp 把操作描述符翻译成 MCP 工具定义。
func translateOp(desc toolset.OpDescriptor) mcp.Tool {
	schema := schemaObject{
		Type:       "object",
		Properties: make(map[string]schemaProperty, len(desc.Params)),
	}
	for _, param := range desc.Params {
		schema.Properties[param.Name] = schemaProperty{
			Type:        translateKind(param.Kind),
			Description: param.Description,
		}
		if param.Required {
			schema.Required = append(schema.Required, param.Name)
		}
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		// 模式结构是本地构造的,序列化失败意味着程序错误。
		raw = json.RawMessage(`{"type":"object"}`)
	}
	return mcp.NewToolWithRawSchema(desc.Name, desc.Description, raw)
}
