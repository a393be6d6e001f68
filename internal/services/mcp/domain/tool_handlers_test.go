package domain

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	grpcmeta "github.com/louisbranch/waybill/internal/services/ledger/api/grpc/metadata"
)

type fakeLedgerClient struct {
	ledgerv1.LedgerServiceClient

	registerReq  *ledgerv1.RegisterProductRequest
	registerResp *ledgerv1.RegisterProductResponse
	registerErr  error
	outgoing     metadata.MD

	statusResp   *ledgerv1.UpdateStatusResponse
	transferResp *ledgerv1.TransferCustodyResponse
	recordResp   *ledgerv1.RecordEventResponse
	productResp  *ledgerv1.GetProductResponse
	eventResp    *ledgerv1.GetEventResponse
	countResp    *ledgerv1.GetEventCountResponse
	totalResp    *ledgerv1.GetTotalProductsResponse
	authResp     *ledgerv1.AuthorizeHandlerResponse
	revokeResp   *ledgerv1.RevokeHandlerResponse
	isAuthResp   *ledgerv1.IsAuthorizedResponse
	verifyResp   *ledgerv1.VerifyIntegrityResponse
	listPages    map[string]*ledgerv1.ListEventsResponse
	listReqs     []*ledgerv1.ListEventsRequest
}

func (f *fakeLedgerClient) RegisterProduct(ctx context.Context, in *ledgerv1.RegisterProductRequest, _ ...grpc.CallOption) (*ledgerv1.RegisterProductResponse, error) {
	f.registerReq = in
	f.outgoing, _ = metadata.FromOutgoingContext(ctx)
	return f.registerResp, f.registerErr
}

func (f *fakeLedgerClient) UpdateStatus(context.Context, *ledgerv1.UpdateStatusRequest, ...grpc.CallOption) (*ledgerv1.UpdateStatusResponse, error) {
	return f.statusResp, nil
}

func (f *fakeLedgerClient) TransferCustody(context.Context, *ledgerv1.TransferCustodyRequest, ...grpc.CallOption) (*ledgerv1.TransferCustodyResponse, error) {
	return f.transferResp, nil
}

func (f *fakeLedgerClient) RecordEvent(context.Context, *ledgerv1.RecordEventRequest, ...grpc.CallOption) (*ledgerv1.RecordEventResponse, error) {
	return f.recordResp, nil
}

func (f *fakeLedgerClient) GetProduct(context.Context, *ledgerv1.GetProductRequest, ...grpc.CallOption) (*ledgerv1.GetProductResponse, error) {
	return f.productResp, nil
}

func (f *fakeLedgerClient) GetEvent(context.Context, *ledgerv1.GetEventRequest, ...grpc.CallOption) (*ledgerv1.GetEventResponse, error) {
	return f.eventResp, nil
}

func (f *fakeLedgerClient) GetEventCount(context.Context, *ledgerv1.GetEventCountRequest, ...grpc.CallOption) (*ledgerv1.GetEventCountResponse, error) {
	return f.countResp, nil
}

func (f *fakeLedgerClient) GetTotalProducts(context.Context, *ledgerv1.GetTotalProductsRequest, ...grpc.CallOption) (*ledgerv1.GetTotalProductsResponse, error) {
	return f.totalResp, nil
}

func (f *fakeLedgerClient) AuthorizeHandler(context.Context, *ledgerv1.AuthorizeHandlerRequest, ...grpc.CallOption) (*ledgerv1.AuthorizeHandlerResponse, error) {
	return f.authResp, nil
}

func (f *fakeLedgerClient) RevokeHandler(context.Context, *ledgerv1.RevokeHandlerRequest, ...grpc.CallOption) (*ledgerv1.RevokeHandlerResponse, error) {
	return f.revokeResp, nil
}

func (f *fakeLedgerClient) IsAuthorized(context.Context, *ledgerv1.IsAuthorizedRequest, ...grpc.CallOption) (*ledgerv1.IsAuthorizedResponse, error) {
	return f.isAuthResp, nil
}

func (f *fakeLedgerClient) VerifyIntegrity(context.Context, *ledgerv1.VerifyIntegrityRequest, ...grpc.CallOption) (*ledgerv1.VerifyIntegrityResponse, error) {
	return f.verifyResp, nil
}

func (f *fakeLedgerClient) ListEvents(_ context.Context, in *ledgerv1.ListEventsRequest, _ ...grpc.CallOption) (*ledgerv1.ListEventsResponse, error) {
	f.listReqs = append(f.listReqs, in)
	page, ok := f.listPages[in.PageToken]
	if !ok {
		return nil, fmt.Errorf("unexpected page token %q", in.PageToken)
	}
	return page, nil
}

func TestProductRegisterHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &fakeLedgerClient{registerResp: &ledgerv1.RegisterProductResponse{ProductID: "P1"}}
		var notified []string
		notify := func(_ context.Context, uri string) { notified = append(notified, uri) }

		toolResult, result, err := ProductRegisterHandler(client, notify)(context.Background(), nil, ProductRegisterInput{
			ProductID: "P1",
			Name:      "Widget",
			Origin:    "Lisbon",
			Batch:     "B-7",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ProductID != "P1" {
			t.Fatalf("product id = %q, want %q", result.ProductID, "P1")
		}
		if client.registerReq.Batch != "B-7" || client.registerReq.Origin != "Lisbon" {
			t.Fatalf("request = %+v", client.registerReq)
		}
		if toolResult == nil || toolResult.Meta[grpcmeta.RequestIDHeader] == "" {
			t.Fatalf("tool result meta = %+v, want request id", toolResult)
		}
		if got := grpcmeta.FirstMetadataValue(client.outgoing, grpcmeta.InvocationIDHeader); got == "" {
			t.Fatal("expected outgoing invocation id")
		}
		if toolResult.Meta[grpcmeta.InvocationIDHeader] != grpcmeta.FirstMetadataValue(client.outgoing, grpcmeta.InvocationIDHeader) {
			t.Fatalf("invocation id mismatch: %v", toolResult.Meta)
		}
		if len(notified) != 1 || notified[0] != "product://P1" {
			t.Fatalf("notified = %v, want [product://P1]", notified)
		}
	})

	t.Run("gRPC error", func(t *testing.T) {
		client := &fakeLedgerClient{registerErr: fmt.Errorf("connection refused")}
		_, _, err := ProductRegisterHandler(client, nil)(context.Background(), nil, ProductRegisterInput{ProductID: "P1"})
		if err == nil || !strings.Contains(err.Error(), "product register failed") {
			t.Fatalf("err = %v, want product register failed", err)
		}
	})

	t.Run("nil response", func(t *testing.T) {
		client := &fakeLedgerClient{}
		_, _, err := ProductRegisterHandler(client, nil)(context.Background(), nil, ProductRegisterInput{ProductID: "P1"})
		if err == nil {
			t.Fatal("expected error for missing response")
		}
	})
}

func TestMutationHandlersNotifyHistory(t *testing.T) {
	client := &fakeLedgerClient{
		statusResp:   &ledgerv1.UpdateStatusResponse{Status: "sold"},
		transferResp: &ledgerv1.TransferCustodyResponse{Holder: "bob"},
		recordResp:   &ledgerv1.RecordEventResponse{Index: 4},
	}
	var notified []string
	notify := func(_ context.Context, uri string) { notified = append(notified, uri) }
	ctx := context.Background()

	_, status, err := StatusUpdateHandler(client, notify)(ctx, nil, StatusUpdateInput{ProductID: "P1", Status: "sold"})
	if err != nil {
		t.Fatalf("status update: %v", err)
	}
	if status.Status != "sold" {
		t.Fatalf("status = %q, want sold", status.Status)
	}
	_, transfer, err := CustodyTransferHandler(client, notify)(ctx, nil, CustodyTransferInput{ProductID: "P1", NewHolder: "bob"})
	if err != nil {
		t.Fatalf("custody transfer: %v", err)
	}
	if transfer.Holder != "bob" {
		t.Fatalf("holder = %q, want bob", transfer.Holder)
	}
	_, record, err := EventRecordHandler(client, notify)(ctx, nil, EventRecordInput{ProductID: "P1", EventType: "inspected", Location: "Porto"})
	if err != nil {
		t.Fatalf("event record: %v", err)
	}
	if record.Index != 4 {
		t.Fatalf("index = %d, want 4", record.Index)
	}

	want := []string{
		"product://P1", "product://P1/events",
		"product://P1", "product://P1/events",
		"product://P1/events",
	}
	if strings.Join(notified, ",") != strings.Join(want, ",") {
		t.Fatalf("notified = %v, want %v", notified, want)
	}
}

func TestReadHandlers(t *testing.T) {
	client := &fakeLedgerClient{
		productResp: &ledgerv1.GetProductResponse{Found: true, Product: &ledgerv1.Product{
			ID: "P1", Name: "Widget", Manufacturer: "alice", Holder: "alice", Status: "manufactured", StatusKind: "manufactured",
		}},
		eventResp:  &ledgerv1.GetEventResponse{},
		countResp:  &ledgerv1.GetEventCountResponse{Found: true, Count: 2},
		totalResp:  &ledgerv1.GetTotalProductsResponse{Total: 9},
		verifyResp: &ledgerv1.VerifyIntegrityResponse{Products: 1, Events: 2},
	}
	ctx := context.Background()

	_, product, err := ProductGetHandler(client)(ctx, nil, ProductGetInput{ProductID: "P1"})
	if err != nil {
		t.Fatalf("product get: %v", err)
	}
	if !product.Found || product.Product.Manufacturer != "alice" {
		t.Fatalf("product = %+v", product)
	}

	_, event, err := EventGetHandler(client)(ctx, nil, EventGetInput{ProductID: "P1", Index: 7})
	if err != nil {
		t.Fatalf("event get: %v", err)
	}
	if event.Found || event.Event != nil {
		t.Fatalf("event = %+v, want not found", event)
	}

	_, count, err := EventCountHandler(client)(ctx, nil, EventCountInput{ProductID: "P1"})
	if err != nil {
		t.Fatalf("event count: %v", err)
	}
	if count.Count != 2 {
		t.Fatalf("count = %d, want 2", count.Count)
	}

	_, total, err := ProductTotalHandler(client)(ctx, nil, ProductTotalInput{})
	if err != nil {
		t.Fatalf("product total: %v", err)
	}
	if total.Total != 9 {
		t.Fatalf("total = %d, want 9", total.Total)
	}

	_, verify, err := IntegrityVerifyHandler(client)(ctx, nil, IntegrityVerifyInput{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verify.Events != 2 {
		t.Fatalf("verified events = %d, want 2", verify.Events)
	}
}

func TestHandlerGrantTools(t *testing.T) {
	client := &fakeLedgerClient{
		authResp:   &ledgerv1.AuthorizeHandlerResponse{Authorized: true},
		revokeResp: &ledgerv1.RevokeHandlerResponse{Revoked: true},
		isAuthResp: &ledgerv1.IsAuthorizedResponse{Authorized: false},
	}
	ctx := context.Background()
	input := HandlerGrantInput{ProductID: "P1", Handler: "carol"}

	_, granted, err := HandlerAuthorizeHandler(client)(ctx, nil, input)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !granted.Authorized {
		t.Fatal("expected authorized after grant")
	}
	_, revoked, err := HandlerRevokeHandler(client)(ctx, nil, input)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Authorized {
		t.Fatal("expected unauthorized after revoke")
	}
	_, check, err := HandlerIsAuthorizedHandler(client)(ctx, nil, input)
	if err != nil {
		t.Fatalf("is authorized: %v", err)
	}
	if check.Authorized || check.Handler != "carol" {
		t.Fatalf("check = %+v", check)
	}
}

func TestEventListHandlerSkipsNilEvents(t *testing.T) {
	client := &fakeLedgerClient{listPages: map[string]*ledgerv1.ListEventsResponse{
		"": {Events: []*ledgerv1.Event{{Index: 0, Type: "manufactured"}, nil}, NextPageToken: "next"},
	}}
	_, result, err := EventListHandler(client)(context.Background(), nil, EventListInput{ProductID: "P1", PageSize: 1})
	if err != nil {
		t.Fatalf("event list: %v", err)
	}
	if len(result.Events) != 1 || result.NextPageToken != "next" {
		t.Fatalf("result = %+v", result)
	}
}

func TestProductResourceHandler(t *testing.T) {
	t.Run("product", func(t *testing.T) {
		client := &fakeLedgerClient{productResp: &ledgerv1.GetProductResponse{Found: true, Product: &ledgerv1.Product{ID: "P1", Name: "Widget"}}}
		result, err := ProductResourceHandler(client)(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "product://P1"},
		})
		if err != nil {
			t.Fatalf("read resource: %v", err)
		}
		if len(result.Contents) != 1 || !strings.Contains(result.Contents[0].Text, `"name": "Widget"`) {
			t.Fatalf("contents = %+v", result.Contents)
		}
	})

	t.Run("history walks pages", func(t *testing.T) {
		client := &fakeLedgerClient{listPages: map[string]*ledgerv1.ListEventsResponse{
			"":   {Events: []*ledgerv1.Event{{Index: 0}}, NextPageToken: "p2"},
			"p2": {Events: []*ledgerv1.Event{{Index: 1}}},
		}}
		result, err := ProductResourceHandler(client)(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "product://P1/events"},
		})
		if err != nil {
			t.Fatalf("read resource: %v", err)
		}
		if len(client.listReqs) != 2 {
			t.Fatalf("list calls = %d, want 2", len(client.listReqs))
		}
		if !strings.Contains(result.Contents[0].Text, `"index": 1`) {
			t.Fatalf("contents = %s", result.Contents[0].Text)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		client := &fakeLedgerClient{productResp: &ledgerv1.GetProductResponse{}}
		_, err := ProductResourceHandler(client)(context.Background(), &mcp.ReadResourceRequest{
			Params: &mcp.ReadResourceParams{URI: "product://P9"},
		})
		if err == nil {
			t.Fatal("expected not found error")
		}
	})
}

func TestParseProductURI(t *testing.T) {
	tests := []struct {
		uri     string
		id      string
		events  bool
		wantErr bool
	}{
		{uri: "product://P1", id: "P1"},
		{uri: "product://P1/events", id: "P1", events: true},
		{uri: "product://", wantErr: true},
		{uri: "product:///events", wantErr: true},
		{uri: "product://a/b", wantErr: true},
		{uri: "shipment://P1", wantErr: true},
	}
	for _, tt := range tests {
		id, events, err := parseProductURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseProductURI(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseProductURI(%q) error: %v", tt.uri, err)
			continue
		}
		if id != tt.id || events != tt.events {
			t.Errorf("parseProductURI(%q) = %q, %v, want %q, %v", tt.uri, id, events, tt.id, tt.events)
		}
	}
}
