package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
)

// HandlerGrantInput names a product and a handler identity.
type HandlerGrantInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Handler   string `json:"handler" jsonschema:"handler identity"`
}

// HandlerGrantResult reports the grant state after a tool call.
type HandlerGrantResult struct {
	ProductID  string `json:"product_id" jsonschema:"product identifier"`
	Handler    string `json:"handler" jsonschema:"handler identity"`
	Authorized bool   `json:"authorized" jsonschema:"whether the handler may record events"`
}

// HandlerAuthorizeTool defines the MCP tool schema for granting a handler.
func HandlerAuthorizeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "handler_authorize",
		Description: "Allows a handler to record events for a product. Only the manufacturer may grant.",
	}
}

// HandlerAuthorizeHandler executes a handler grant.
func HandlerAuthorizeHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[HandlerGrantInput, HandlerGrantResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HandlerGrantInput) (*mcp.CallToolResult, HandlerGrantResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, HandlerGrantResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "handler authorize", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.AuthorizeHandlerResponse, error) {
			return client.AuthorizeHandler(ctx, &ledgerv1.AuthorizeHandlerRequest{ProductID: input.ProductID, Handler: input.Handler}, opts...)
		})
		if err != nil {
			return nil, HandlerGrantResult{}, err
		}
		return CallToolResultWithMetadata(meta), HandlerGrantResult{
			ProductID:  input.ProductID,
			Handler:    input.Handler,
			Authorized: response.Authorized,
		}, nil
	}
}

// HandlerRevokeTool defines the MCP tool schema for revoking a handler.
func HandlerRevokeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "handler_revoke",
		Description: "Withdraws a handler grant. Only the manufacturer may revoke.",
	}
}

// HandlerRevokeHandler executes a handler revocation.
func HandlerRevokeHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[HandlerGrantInput, HandlerGrantResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HandlerGrantInput) (*mcp.CallToolResult, HandlerGrantResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, HandlerGrantResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		_, meta, err := invoke(ctx, invocationID, "handler revoke", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.RevokeHandlerResponse, error) {
			return client.RevokeHandler(ctx, &ledgerv1.RevokeHandlerRequest{ProductID: input.ProductID, Handler: input.Handler}, opts...)
		})
		if err != nil {
			return nil, HandlerGrantResult{}, err
		}
		return CallToolResultWithMetadata(meta), HandlerGrantResult{
			ProductID:  input.ProductID,
			Handler:    input.Handler,
			Authorized: false,
		}, nil
	}
}

// HandlerIsAuthorizedTool defines the MCP tool schema for checking a grant.
func HandlerIsAuthorizedTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "handler_is_authorized",
		Description: "Reports whether a handler holds an explicit grant for a product",
	}
}

// HandlerIsAuthorizedHandler executes a grant check.
func HandlerIsAuthorizedHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[HandlerGrantInput, HandlerGrantResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HandlerGrantInput) (*mcp.CallToolResult, HandlerGrantResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, HandlerGrantResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "handler is authorized", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.IsAuthorizedResponse, error) {
			return client.IsAuthorized(ctx, &ledgerv1.IsAuthorizedRequest{ProductID: input.ProductID, Handler: input.Handler}, opts...)
		})
		if err != nil {
			return nil, HandlerGrantResult{}, err
		}
		return CallToolResultWithMetadata(meta), HandlerGrantResult{
			ProductID:  input.ProductID,
			Handler:    input.Handler,
			Authorized: response.Authorized,
		}, nil
	}
}

// IntegrityVerifyInput represents the MCP tool input for an integrity check.
type IntegrityVerifyInput struct {
	ProductID string `json:"product_id,omitempty" jsonschema:"optional product to verify; empty verifies the whole ledger"`
}

// IntegrityVerifyResult represents the MCP tool output for an integrity check.
type IntegrityVerifyResult struct {
	Products uint64 `json:"products" jsonschema:"products whose history was checked"`
	Events   uint64 `json:"events" jsonschema:"events whose hash chain and signature were checked"`
}

// IntegrityVerifyTool defines the MCP tool schema for an integrity check.
func IntegrityVerifyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ledger_verify",
		Description: "Recomputes event hash chains and signatures and reports how much was checked. Fails on the first tampered event.",
	}
}

// IntegrityVerifyHandler executes an integrity check.
func IntegrityVerifyHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[IntegrityVerifyInput, IntegrityVerifyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IntegrityVerifyInput) (*mcp.CallToolResult, IntegrityVerifyResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, IntegrityVerifyResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "ledger verify", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.VerifyIntegrityResponse, error) {
			return client.VerifyIntegrity(ctx, &ledgerv1.VerifyIntegrityRequest{ProductID: input.ProductID}, opts...)
		})
		if err != nil {
			return nil, IntegrityVerifyResult{}, err
		}
		return CallToolResultWithMetadata(meta), IntegrityVerifyResult{Products: response.Products, Events: response.Events}, nil
	}
}
