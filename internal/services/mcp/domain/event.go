package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
)

// EventResult is the MCP view of a recorded event.
type EventResult struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Index     uint64 `json:"index" jsonschema:"zero-based position in the product history"`
	Type      string `json:"type" jsonschema:"event type label"`
	Kind      string `json:"kind" jsonschema:"classification of the event type (custom for free-form labels)"`
	Location  string `json:"location,omitempty" jsonschema:"where the event happened"`
	Timestamp uint64 `json:"timestamp" jsonschema:"ledger height when the event was recorded"`
	Handler   string `json:"handler" jsonschema:"identity that recorded the event"`
	Notes     string `json:"notes,omitempty" jsonschema:"free-form notes"`
	ChainHash string `json:"chain_hash,omitempty" jsonschema:"hash chaining this event to its predecessor"`
}

func eventResultFromProto(e *ledgerv1.Event) EventResult {
	return EventResult{
		ProductID: e.ProductID,
		Index:     e.Index,
		Type:      e.Type,
		Kind:      e.Kind,
		Location:  e.Location,
		Timestamp: e.Timestamp,
		Handler:   e.Handler,
		Notes:     e.Notes,
		ChainHash: e.ChainHash,
	}
}

// EventRecordInput represents the MCP tool input for recording an event.
type EventRecordInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	EventType string `json:"event_type" jsonschema:"event type label, e.g. inspected or stored"`
	Location  string `json:"location,omitempty" jsonschema:"where the event happened"`
	Notes     string `json:"notes,omitempty" jsonschema:"optional free-form notes"`
}

// EventRecordResult represents the MCP tool output for recording an event.
type EventRecordResult struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Index     uint64 `json:"index" jsonschema:"index assigned to the new event"`
}

// EventRecordTool defines the MCP tool schema for recording an event.
func EventRecordTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_record",
		Description: "Appends an event to a product history. Allowed for the manufacturer, the current holder and authorized handlers.",
	}
}

// EventRecordHandler executes an event append.
func EventRecordHandler(client ledgerv1.LedgerServiceClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[EventRecordInput, EventRecordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventRecordInput) (*mcp.CallToolResult, EventRecordResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, EventRecordResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "event record", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.RecordEventResponse, error) {
			return client.RecordEvent(ctx, &ledgerv1.RecordEventRequest{
				ProductID: input.ProductID,
				EventType: input.EventType,
				Location:  input.Location,
				Notes:     input.Notes,
			}, opts...)
		})
		if err != nil {
			return nil, EventRecordResult{}, err
		}
		NotifyResourceUpdates(ctx, notify, productEventsURI(input.ProductID))
		return CallToolResultWithMetadata(meta), EventRecordResult{ProductID: input.ProductID, Index: response.Index}, nil
	}
}

// EventGetInput represents the MCP tool input for reading one event.
type EventGetInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Index     uint64 `json:"index" jsonschema:"zero-based event index"`
}

// EventGetResult represents the MCP tool output for reading one event.
type EventGetResult struct {
	Found bool         `json:"found" jsonschema:"whether the event exists"`
	Event *EventResult `json:"event,omitempty" jsonschema:"the event when found"`
}

// EventGetTool defines the MCP tool schema for reading one event.
func EventGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_get",
		Description: "Returns one event of a product history by index, or found=false when the index is out of range",
	}
}

// EventGetHandler executes a single event read.
func EventGetHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[EventGetInput, EventGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventGetInput) (*mcp.CallToolResult, EventGetResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, EventGetResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "event get", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.GetEventResponse, error) {
			return client.GetEvent(ctx, &ledgerv1.GetEventRequest{ProductID: input.ProductID, Index: input.Index}, opts...)
		})
		if err != nil {
			return nil, EventGetResult{}, err
		}
		result := EventGetResult{Found: response.Found && response.Event != nil}
		if result.Found {
			event := eventResultFromProto(response.Event)
			result.Event = &event
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}

// EventCountInput represents the MCP tool input for counting events.
type EventCountInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
}

// EventCountResult represents the MCP tool output for counting events.
type EventCountResult struct {
	Found bool   `json:"found" jsonschema:"whether the product exists"`
	Count uint64 `json:"count" jsonschema:"number of events in the product history"`
}

// EventCountTool defines the MCP tool schema for counting events.
func EventCountTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_count",
		Description: "Returns the length of a product history",
	}
}

// EventCountHandler executes an event count.
func EventCountHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[EventCountInput, EventCountResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventCountInput) (*mcp.CallToolResult, EventCountResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, EventCountResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "event count", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.GetEventCountResponse, error) {
			return client.GetEventCount(ctx, &ledgerv1.GetEventCountRequest{ProductID: input.ProductID}, opts...)
		})
		if err != nil {
			return nil, EventCountResult{}, err
		}
		return CallToolResultWithMetadata(meta), EventCountResult{Found: response.Found, Count: response.Count}, nil
	}
}

// EventListInput represents the MCP tool input for paging through a history.
type EventListInput struct {
	ProductID string `json:"product_id" jsonschema:"product identifier"`
	Filter    string `json:"filter,omitempty" jsonschema:"optional filter expression, e.g. type = \"inspected\""`
	PageSize  int32  `json:"page_size,omitempty" jsonschema:"maximum events per page"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// EventListResult represents the MCP tool output for paging through a history.
type EventListResult struct {
	Events        []EventResult `json:"events" jsonschema:"events in index order"`
	NextPageToken string        `json:"next_page_token,omitempty" jsonschema:"token for the next page"`
}

// EventListTool defines the MCP tool schema for listing events.
func EventListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "event_list",
		Description: "Lists a product history in index order with optional filtering and paging",
	}
}

// EventListHandler executes an event listing.
func EventListHandler(client ledgerv1.LedgerServiceClient) mcp.ToolHandlerFor[EventListInput, EventListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventListInput) (*mcp.CallToolResult, EventListResult, error) {
		invocationID, err := NewInvocationID()
		if err != nil {
			return nil, EventListResult{}, fmt.Errorf("generate invocation id: %w", err)
		}
		response, meta, err := invoke(ctx, invocationID, "event list", func(ctx context.Context, opts ...grpc.CallOption) (*ledgerv1.ListEventsResponse, error) {
			return client.ListEvents(ctx, &ledgerv1.ListEventsRequest{
				ProductID: input.ProductID,
				Filter:    input.Filter,
				PageSize:  input.PageSize,
				PageToken: input.PageToken,
			}, opts...)
		})
		if err != nil {
			return nil, EventListResult{}, err
		}
		result := EventListResult{
			Events:        make([]EventResult, 0, len(response.Events)),
			NextPageToken: response.NextPageToken,
		}
		for _, event := range response.Events {
			if event == nil {
				continue
			}
			result.Events = append(result.Events, eventResultFromProto(event))
		}
		return CallToolResultWithMetadata(meta), result, nil
	}
}
