package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
)

// ProductResult is the MCP view of a product.
type ProductResult struct {
	ID           string `json:"id" jsonschema:"product identifier"`
	Name         string `json:"name" jsonschema:"product name"`
	Manufacturer string `json:"manufacturer" jsonschema:"identity that registered the product"`
	Origin       string `json:"origin" jsonschema:"origin location"`
	CreatedAt    uint64 `json:"created_at" jsonschema:"ledger height at registration"`
	Status       string `json:"status" jsonschema:"current status label"`
	StatusKind   string `json:"status_kind" jsonschema:"classification of the status label (custom for free-form labels)"`
	Holder       string `json:"holder" jsonschema:"identity currently holding custody"`
	Batch        string `json:"batch,omitempty" jsonschema:"optional batch reference"`
}

func productResultFromProto(p *ledgerv1.Product) ProductResult {
	return ProductResult{
		ID:           p.ID,
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		Origin:       p.Origin,
		CreatedAt:    p.CreatedAt,
		Status:       p.Status,
		StatusKind:   p.StatusKind,
		Holder:       p.Holder,
		Batch:        p.Batch,
	}
}

// ProductRegisterInput represents the MCP tool input for registering a product.
type ProductRegisterInput struct {
	ProductID string `json:"product_id" jsonschema:"unique product identifier"`
	Name      string `json:"name" jsonschema:"product name"`
	Origin    string `json:"origin" jsonschema:"origin location"`
	Batch     string `json:"batch,omitempty" jsonschema:"optional batch reference"`
}

// ProductRegisterResult represents the MCP tool output for registering a product.
type ProductRegisterResult struct {
	ProductID string `json:"product_id" jsonschema:"registered product identifier"`
}

// ProductRegisterTool defines the MCP tool schema for registering a product.
func ProductRegisterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "product_register",
		Description: "Registers a new product. The caller becomes its manufacturer and first holder.",
	}
}

// ProductRegisterHandler executes a product registration.
func ProductRegisterHandler(client ledgerv1.LedgerServiceClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ProductRegisterInput, ProductRegisterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProductRegisterInput) (*mcp.CallToolResult, ProductRegisterResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ProductRegisterResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "product register", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.RegisterProductResponse, error) {
			return client.RegisterProduct(ctx, &ledgerv1.RegisterProductRequest{
				ProductID: input.ProductID,
				Name:      input.Name,
				Origin:    input.Origin,
				Batch:     input.Batch,
			}, opts...)
		})
		if err != nil {
			return nil, ProductRegisterResult{}, err
		}
		NotifyResourceUpdates(ctx, notify, productURI(response.ProductID))
		return CallToolResultWithMetadata(meta), ProductRegisterResult{ProductID: response.ProductID}, nil
	}
}

// StatusUpdateInput represents the MCP tool input for changing a product status.
type StatusUpdateInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Status    string `json:"status" jsonschema:"new status label; any printable label up to 32 bytes"`
}

// StatusUpdateResult represents the MCP tool output for changing a product status.
type StatusUpdateResult struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Status    string `json:"status" jsonschema:"status label now in effect"`
}

// StatusUpdateTool defines the MCP tool schema for changing a product status.
func StatusUpdateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "status_update",
		Description: "Sets the status label of a product and records a status-change event. Allowed for the manufacturer and the current holder.",
	}
}

// StatusUpdateHandler executes a status update.
func StatusUpdateHandler(client ledgerv1.LedgerServiceClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[StatusUpdateInput, StatusUpdateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StatusUpdateInput) (*mcp.CallToolResult, StatusUpdateResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, StatusUpdateResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "status update", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.UpdateStatusResponse, error) {
			return client.UpdateStatus(ctx, &ledgerv1.UpdateStatusRequest{ProductID: input.ProductID, Status: input.Status}, opts...)
		})
		if err != nil {
			return nil, StatusUpdateResult{}, err
		}
		NotifyResourceUpdates(ctx, notify, productURI(input.ProductID), productEventsURI(input.ProductID))
		return CallToolResultWithMetadata(meta), StatusUpdateResult{ProductID: input.ProductID, Status: response.Status}, nil
	}
}

// CustodyTransferInput represents the MCP tool input for transferring custody.
type CustodyTransferInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	NewHolder string `json:"new_holder" jsonschema:"identity receiving custody"`
	Location  string `json:"location,omitempty" jsonschema:"optional hand-over location"`
}

// CustodyTransferResult represents the MCP tool output for transferring custody.
type CustodyTransferResult struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Holder    string `json:"holder" jsonschema:"identity now holding custody"`
}

// CustodyTransferTool defines the MCP tool schema for transferring custody.
func CustodyTransferTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "custody_transfer",
		Description: "Hands custody of a product to a new holder, sets its status to in-transit and records a custody-transfer event.",
	}
}

// CustodyTransferHandler executes a custody transfer.
func CustodyTransferHandler(client ledgerv1.LedgerServiceClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CustodyTransferInput, CustodyTransferResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CustodyTransferInput) (*mcp.CallToolResult, CustodyTransferResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, CustodyTransferResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "custody transfer", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.TransferCustodyResponse, error) {
			return client.TransferCustody(ctx, &ledgerv1.TransferCustodyRequest{
				ProductID: input.ProductID,
				NewHolder: input.NewHolder,
				Location:  input.Location,
			}, opts...)
		})
		if err != nil {
			return nil, CustodyTransferResult{}, err
		}
		NotifyResourceUpdates(ctx, notify, productURI(input.ProductID), productEventsURI(input.ProductID))
		return CallToolResultWithMetadata(meta), CustodyTransferResult{ProductID: input.ProductID, Holder: response.Holder}, nil
	}
}

// ProductGetInput represents the MCP tool input for reading a product.
type ProductGetInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
}

// ProductGetResult represents the MCP tool output for reading a product.
type ProductGetResult struct {
	Found   bool           `json:"found" jsonschema:"whether the product exists"`
	Product *ProductResult `json:"product,omitempty" jsonschema:"the product when found"`
}

// ProductGetTool defines the MCP tool schema for reading a product.
func ProductGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "product_get",
		Description: "Returns a product record, or found=false when it does not exist",
	}
}

// ProductGetHandler executes a product read.
func ProductGetHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[ProductGetInput, ProductGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProductGetInput) (*mcp.CallToolResult, ProductGetResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ProductGetResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "product get", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.GetProductResponse, error) {
			return client.GetProduct(ctx, &ledgerv1.GetProductRequest{ProductID: input.ProductID}, opts...)
		})
		if err != nil {
			return nil, ProductGetResult{}, err
		}
		result := ProductGetResult{Found: response.Found && response.Product != nil}
		if result.Found {
			product := productResultFromProto(response.Product)
			result.Product = &product
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

// ProductTotalInput represents the MCP tool input for counting products.
type ProductTotalInput struct{}

// ProductTotalResult represents the MCP tool output for counting products.
type ProductTotalResult struct {
	Total uint64 `json:"total" jsonschema:"number of registered products"`
}

// ProductTotalTool defines the MCP tool schema for counting products.
func ProductTotalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "product_total",
		Description: "Returns the number of products ever registered",
	}
}

// ProductTotalHandler executes a product count.
func ProductTotalHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[ProductTotalInput, ProductTotalResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ProductTotalInput) (*mcp.CallToolResult, ProductTotalResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, ProductTotalResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "product total", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.GetTotalProductsResponse, error) {
			return client.GetTotalProducts(ctx, &ledgerv1.GetTotalProductsRequest{}, opts...)
		})
		if err != nil {
			return nil, ProductTotalResult{}, err
		}
		return CallToolResultWithMetadata(meta), ProductTotalResult{Total: response.Total}, nil
	}
}
