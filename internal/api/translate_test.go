package api

import (
	"encoding/json"
	"testing"

	"WalletMCP-Chain/internal/toolset"
)

func TestTranslateKind(t *testing.T) {
	cases := []struct {
		kind toolset.ParamKind
		want string
	}{
		{toolset.ParamString, "string"},
		{toolset.ParamNumber, "number"},
		{toolset.ParamBool, "boolean"},
		{toolset.ParamOther, ""},
	}
	for _, tc := range cases {
		if got := translateKind(tc.kind); got != tc.want {
			t.Fatalf("translateKind(%q) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestTranslateOpSchema(t *testing.T) {
	desc := toolset.OpDescriptor{
		Name:        "transfer_token",
		Description: "转移 ERC20 代币",
		Params: []toolset.ParamSpec{
			{Name: "token", Kind: toolset.ParamString, Description: "代币合约地址", Required: true},
			{Name: "amount", Kind: toolset.ParamString, Description: "数量, 基础单位", Required: true},
			{Name: "confirmations", Kind: toolset.ParamNumber, Description: "确认数"},
			{Name: "dry_run", Kind: toolset.ParamBool, Description: "仅模拟"},
			{Name: "extra", Kind: toolset.ParamOther, Description: "透传参数"},
		},
	}

	tool := translateOp(desc)
	if tool.Name != "transfer_token" {
		t.Fatalf("unexpected tool name %q", tool.Name)
	}
	if tool.Description != desc.Description {
		t.Fatalf("unexpected description %q", tool.Description)
	}

	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(tool.RawInputSchema, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if schema.Type != "object" {
		t.Fatalf("unexpected schema type %q", schema.Type)
	}
	if len(schema.Properties) != len(desc.Params) {
		t.Fatalf("expected %d properties, got %d", len(desc.Params), len(schema.Properties))
	}
	if got := schema.Properties["token"]["type"]; got != "string" {
		t.Fatalf("token type = %v", got)
	}
	if got := schema.Properties["confirmations"]["type"]; got != "number" {
		t.Fatalf("confirmations type = %v", got)
	}
	if got := schema.Properties["dry_run"]["type"]; got != "boolean" {
		t.Fatalf("dry_run type = %v", got)
	}
	// 透传参数不携带 type 约束。
	if _, present := schema.Properties["extra"]["type"]; present {
		t.Fatal("extra should not carry a type constraint")
	}
	if len(schema.Required) != 2 || schema.Required[0] != "token" || schema.Required[1] != "amount" {
		t.Fatalf("unexpected required list %v", schema.Required)
	}
}
