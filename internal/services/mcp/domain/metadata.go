package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/louisbranch/waybill/internal/platform/id"
	"github.com/louisbranch/waybill/internal/platform/timeouts"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
)

// grpcCallTimeout caps the time for a single gRPC call from an MCP tool handler.
const grpcCallTimeout = timeouts.GRPCRequest

// ToolCallMetadata carries correlation identifiers for MCP tool calls.
type ToolCallMetadata struct {
	RequestID    string
	InvocationID string
}

// ResourceUpdateNotifier notifies MCP clients about resource updates.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NewInvocationID generates an invocation identifier for a tool call.
func NewInvocationID() (string, error) {
	return id.NewID()
}

// NewOutgoingContext attaches request metadata to a context.
func NewOutgoingContext(ctx context.Context, invocationID string) (context.Context, ToolCallMetadata, error) {
	requestID, err := id.NewID()
	if err != nil {
		return nil, ToolCallMetadata{}, err
	}
	callCtx := grpcmeta.OutgoingContext(ctx, requestID, invocationID)
	return callCtx, ToolCallMetadata{RequestID: requestID, InvocationID: invocationID}, nil
}

// MergeResponseMetadata overlays response headers on top of sent metadata.
func MergeResponseMetadata(sent ToolCallMetadata, header metadata.MD) ToolCallMetadata {
	requestID := grpcmeta.FirstMetadataValue(header, grpcmeta.RequestIDHeader)
	if requestID == "" {
		requestID = sent.RequestID
	}
	invocationID := grpcmeta.FirstMetadataValue(header, grpcmeta.InvocationIDHeader)
	if invocationID == "" {
		invocationID = sent.InvocationID
	}
	return ToolCallMetadata{RequestID: requestID, InvocationID: invocationID}
}

// CallToolResultWithMetadata builds a tool result with correlation metadata.
func CallToolResultWithMetadata(meta ToolCallMetadata) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Meta: map[string]any{
			grpcmeta.RequestIDHeader: meta.RequestID,
		},
	}
	if meta.InvocationID != "" {
		result.Meta[grpcmeta.InvocationIDHeader] = meta.InvocationID
	}
	return result
}

// NotifyResourceUpdates sends resource update notifications for each URI provided.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

// invoke runs one ledger call under the tool timeout with fresh correlation
// IDs. A nil response is reported as an error.
func invoke[Resp any](ctx context.Context, invocationID, op string, call func(context.Context, ...grpc.CallOption) (*Resp, error)) (*Resp, ToolCallMetadata, error) {
	runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
	defer cancel()

	callCtx, callMeta, err := NewOutgoingContext(runCtx, invocationID)
	if err != nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("create request metadata: %w", err)
	}
	var header metadata.MD
	response, err := call(callCtx, grpc.Header(&header))
	if err != nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("%s failed: %w", op, err)
	}
	if response == nil {
		return nil, ToolCallMetadata{}, fmt.Errorf("%s response is missing", op)
	}
	return response, MergeResponseMetadata(callMeta, header), nil
}

func productURI(productID string) string {
	return "product://" + productID
}

func productEventsURI(productID string) string {
	return "product://" + productID + "/events"
}
