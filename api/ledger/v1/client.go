package ledgerv1

import (
	"context"

	"google.golang.org/grpc"
)

// LedgerServiceClient is the client API for the ledger service.
type LedgerServiceClient interface {
	RegisterProduct(ctx context.Context, in *RegisterProductRequest, opts ...grpc.CallOption) (*RegisterProductResponse, error)
	RecordEvent(ctx context.Context, in *RecordEventRequest, opts ...grpc.CallOption) (*RecordEventResponse, error)
	UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*UpdateStatusResponse, error)
	TransferCustody(ctx context.Context, in *TransferCustodyRequest, opts ...grpc.CallOption) (*TransferCustodyResponse, error)
	AuthorizeHandler(ctx context.Context, in *AuthorizeHandlerRequest, opts ...grpc.CallOption) (*AuthorizeHandlerResponse, error)
	RevokeHandler(ctx context.Context, in *RevokeHandlerRequest, opts ...grpc.CallOption) (*RevokeHandlerResponse, error)
	GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error)
	GetEvent(ctx context.Context, in *GetEventRequest, opts ...grpc.CallOption) (*GetEventResponse, error)
	GetEventCount(ctx context.Context, in *GetEventCountRequest, opts ...grpc.CallOption) (*GetEventCountResponse, error)
	IsAuthorized(ctx context.Context, in *IsAuthorizedRequest, opts ...grpc.CallOption) (*IsAuthorizedResponse, error)
	GetTotalProducts(ctx context.Context, in *GetTotalProductsRequest, opts ...grpc.CallOption) (*GetTotalProductsResponse, error)
	ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error)
	ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error)
	VerifyIntegrity(ctx context.Context, in *VerifyIntegrityRequest, opts ...grpc.CallOption) (*VerifyIntegrityResponse, error)
}

type ledgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient returns a client that speaks the JSON content
// subtype on cc.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) LedgerServiceClient {
	return &ledgerServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerServiceClient) RegisterProduct(ctx context.Context, in *RegisterProductRequest, opts ...grpc.CallOption) (*RegisterProductResponse, error) {
	return invoke[RegisterProductResponse](ctx, c.cc, LedgerService_RegisterProduct_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) RecordEvent(ctx context.Context, in *RecordEventRequest, opts ...grpc.CallOption) (*RecordEventResponse, error) {
	return invoke[RecordEventResponse](ctx, c.cc, LedgerService_RecordEvent_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) UpdateStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*UpdateStatusResponse, error) {
	return invoke[UpdateStatusResponse](ctx, c.cc, LedgerService_UpdateStatus_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) TransferCustody(ctx context.Context, in *TransferCustodyRequest, opts ...grpc.CallOption) (*TransferCustodyResponse, error) {
	return invoke[TransferCustodyResponse](ctx, c.cc, LedgerService_TransferCustody_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) AuthorizeHandler(ctx context.Context, in *AuthorizeHandlerRequest, opts ...grpc.CallOption) (*AuthorizeHandlerResponse, error) {
	return invoke[AuthorizeHandlerResponse](ctx, c.cc, LedgerService_AuthorizeHandler_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) RevokeHandler(ctx context.Context, in *RevokeHandlerRequest, opts ...grpc.CallOption) (*RevokeHandlerResponse, error) {
	return invoke[RevokeHandlerResponse](ctx, c.cc, LedgerService_RevokeHandler_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetProduct(ctx context.Context, in *GetProductRequest, opts ...grpc.CallOption) (*GetProductResponse, error) {
	return invoke[GetProductResponse](ctx, c.cc, LedgerService_GetProduct_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetEvent(ctx context.Context, in *GetEventRequest, opts ...grpc.CallOption) (*GetEventResponse, error) {
	return invoke[GetEventResponse](ctx, c.cc, LedgerService_GetEvent_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetEventCount(ctx context.Context, in *GetEventCountRequest, opts ...grpc.CallOption) (*GetEventCountResponse, error) {
	return invoke[GetEventCountResponse](ctx, c.cc, LedgerService_GetEventCount_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) IsAuthorized(ctx context.Context, in *IsAuthorizedRequest, opts ...grpc.CallOption) (*IsAuthorizedResponse, error) {
	return invoke[IsAuthorizedResponse](ctx, c.cc, LedgerService_IsAuthorized_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) GetTotalProducts(ctx context.Context, in *GetTotalProductsRequest, opts ...grpc.CallOption) (*GetTotalProductsResponse, error) {
	return invoke[GetTotalProductsResponse](ctx, c.cc, LedgerService_GetTotalProducts_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) ListEvents(ctx context.Context, in *ListEventsRequest, opts ...grpc.CallOption) (*ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.cc, LedgerService_ListEvents_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	return invoke[ListProductsResponse](ctx, c.cc, LedgerService_ListProducts_FullMethodName, in, opts)
}

func (c *ledgerServiceClient) VerifyIntegrity(ctx context.Context, in *VerifyIntegrityRequest, opts ...grpc.CallOption) (*VerifyIntegrityResponse, error) {
	return invoke[VerifyIntegrityResponse](ctx, c.cc, LedgerService_VerifyIntegrity_FullMethodName, in, opts)
}
