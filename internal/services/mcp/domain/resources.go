package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
)

const (
	productURIPrefix    = "product://"
	productEventsSuffix = "/events"
	resourcePageSize    = 50
)

// ProductResourceTemplate defines the MCP resource template for one product.
func ProductResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "product",
		Title:       "Product",
		Description: "Readable product record. URI format: product://{product_id}",
		MIMEType:    "application/json",
		URITemplate: "product://{product_id}",
	}
}

// ProductEventsResourceTemplate defines the MCP resource template for a product history.
func ProductEventsResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "product_events",
		Title:       "Product history",
		Description: "Readable event history for a product. URI format: product://{product_id}/events",
		MIMEType:    "application/json",
		URITemplate: "product://{product_id}/events",
	}
}

// ProductResourceHandler serves both product templates, dispatching on the
// URI suffix.
func ProductResourceHandler(client ledgerv1.LedgerServiceClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("ledger client is not configured")
		}
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("product ID is required; use URI format product://{product_id}")
		}
		uri := req.Params.URI
		productID, events, err := parseProductURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse product URI: %w", err)
		}

		runCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
		defer cancel()
		callCtx, _, err := NewOutgoingContext(runCtx, "")
		if err != nil {
			return nil, fmt.Errorf("create request metadata: %w", err)
		}

		var payload any
		if events {
			payload, err = readProductEvents(callCtx, client, productID)
		} else {
			payload, err = readProduct(callCtx, client, productID)
		}
		if err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal product resource: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/json", Text: string(data)},
			},
		}, nil
	}
}

func readProduct(ctx context.Context, client ledgerv1.LedgerServiceClient, productID string) (ProductResult, error) {
	response, err := client.GetProduct(ctx, &ledgerv1.GetProductRequest{ProductID: productID})
	if err != nil {
		return ProductResult{}, fmt.Errorf("product get failed: %w", err)
	}
	if response == nil || !response.Found || response.Product == nil {
		return ProductResult{}, mcp.ResourceNotFoundError(productURI(productID))
	}
	return productResultFromProto(response.Product), nil
}

// ProductEventsPayload is the body of a product history resource.
type ProductEventsPayload struct {
	ProductID string        `json:"product_id"`
	Events    []EventResult `json:"events"`
}

// readProductEvents walks every page so the resource holds the full history.
func readProductEvents(ctx context.Context, client ledgerv1.LedgerServiceClient, productID string) (ProductEventsPayload, error) {
	payload := ProductEventsPayload{ProductID: productID, Events: []EventResult{}}
	pageToken := ""
	for {
		response, err := client.ListEvents(ctx, &ledgerv1.ListEventsRequest{
			ProductID: productID,
			PageSize:  resourcePageSize,
			PageToken: pageToken,
		})
		if err != nil {
			return ProductEventsPayload{}, fmt.Errorf("event list failed: %w", err)
		}
		if response == nil {
			return ProductEventsPayload{}, fmt.Errorf("event list response is missing")
		}
		for _, event := range response.Events {
			if event != nil {
				payload.Events = append(payload.Events, eventResultFromProto(event))
			}
		}
		if response.NextPageToken == "" || response.NextPageToken == pageToken {
			return payload, nil
		}
		pageToken = response.NextPageToken
	}
}

// parseProductURI accepts product://{id} and product://{id}/events.
func parseProductURI(uri string) (string, bool, error) {
	rest, ok := strings.CutPrefix(uri, productURIPrefix)
	if !ok {
		return "", false, fmt.Errorf("URI must start with %q", productURIPrefix)
	}
	events := false
	if trimmed, found := strings.CutSuffix(rest, productEventsSuffix); found {
		rest = trimmed
		events = true
	}
	productID := strings.TrimSpace(rest)
	if productID == "" || strings.Contains(productID, "/") {
		return "", false, fmt.Errorf("product ID is required; use URI format product://{product_id}")
	}
	return productID, events, nil
}
