package ledgerv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "ledger.v1.LedgerService"

// Full method names, as seen by interceptors.
const (
	LedgerService_RegisterProduct_FullMethodName  = "/" + ServiceName + "/RegisterProduct"
	LedgerService_RecordEvent_FullMethodName      = "/" + ServiceName + "/RecordEvent"
	LedgerService_UpdateStatus_FullMethodName     = "/" + ServiceName + "/UpdateStatus"
	LedgerService_TransferCustody_FullMethodName  = "/" + ServiceName + "/TransferCustody"
	LedgerService_AuthorizeHandler_FullMethodName = "/" + ServiceName + "/AuthorizeHandler"
	LedgerService_RevokeHandler_FullMethodName    = "/" + ServiceName + "/RevokeHandler"
	LedgerService_GetProduct_FullMethodName       = "/" + ServiceName + "/GetProduct"
	LedgerService_GetEvent_FullMethodName         = "/" + ServiceName + "/GetEvent"
	LedgerService_GetEventCount_FullMethodName    = "/" + ServiceName + "/GetEventCount"
	LedgerService_IsAuthorized_FullMethodName     = "/" + ServiceName + "/IsAuthorized"
	LedgerService_GetTotalProducts_FullMethodName = "/" + ServiceName + "/GetTotalProducts"
	LedgerService_ListEvents_FullMethodName       = "/" + ServiceName + "/ListEvents"
	LedgerService_ListProducts_FullMethodName     = "/" + ServiceName + "/ListProducts"
	LedgerService_VerifyIntegrity_FullMethodName  = "/" + ServiceName + "/VerifyIntegrity"
)

// LedgerServiceServer is the server API for the ledger service.
type LedgerServiceServer interface {
	RegisterProduct(context.Context, *RegisterProductRequest) (*RegisterProductResponse, error)
	RecordEvent(context.Context, *RecordEventRequest) (*RecordEventResponse, error)
	UpdateStatus(context.Context, *UpdateStatusRequest) (*UpdateStatusResponse, error)
	TransferCustody(context.Context, *TransferCustodyRequest) (*TransferCustodyResponse, error)
	AuthorizeHandler(context.Context, *AuthorizeHandlerRequest) (*AuthorizeHandlerResponse, error)
	RevokeHandler(context.Context, *RevokeHandlerRequest) (*RevokeHandlerResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error)
	GetEvent(context.Context, *GetEventRequest) (*GetEventResponse, error)
	GetEventCount(context.Context, *GetEventCountRequest) (*GetEventCountResponse, error)
	IsAuthorized(context.Context, *IsAuthorizedRequest) (*IsAuthorizedResponse, error)
	GetTotalProducts(context.Context, *GetTotalProductsRequest) (*GetTotalProductsResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	VerifyIntegrity(context.Context, *VerifyIntegrityRequest) (*VerifyIntegrityResponse, error)
}

// UnimplementedLedgerServiceServer answers every method with Unimplemented.
// Embed it by value in server implementations.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) RegisterProduct(context.Context, *RegisterProductRequest) (*RegisterProductResponse, error) {
	return nil, unimplemented("RegisterProduct")
}
func (UnimplementedLedgerServiceServer) RecordEvent(context.Context, *RecordEventRequest) (*RecordEventResponse, error) {
	return nil, unimplemented("RecordEvent")
}
func (UnimplementedLedgerServiceServer) UpdateStatus(context.Context, *UpdateStatusRequest) (*UpdateStatusResponse, error) {
	return nil, unimplemented("UpdateStatus")
}
func (UnimplementedLedgerServiceServer) TransferCustody(context.Context, *TransferCustodyRequest) (*TransferCustodyResponse, error) {
	return nil, unimplemented("TransferCustody")
}
func (UnimplementedLedgerServiceServer) AuthorizeHandler(context.Context, *AuthorizeHandlerRequest) (*AuthorizeHandlerResponse, error) {
	return nil, unimplemented("AuthorizeHandler")
}
func (UnimplementedLedgerServiceServer) RevokeHandler(context.Context, *RevokeHandlerRequest) (*RevokeHandlerResponse, error) {
	return nil, unimplemented("RevokeHandler")
}
func (UnimplementedLedgerServiceServer) GetProduct(context.Context, *GetProductRequest) (*GetProductResponse, error) {
	return nil, unimplemented("GetProduct")
}
func (UnimplementedLedgerServiceServer) GetEvent(context.Context, *GetEventRequest) (*GetEventResponse, error) {
	return nil, unimplemented("GetEvent")
}
func (UnimplementedLedgerServiceServer) GetEventCount(context.Context, *GetEventCountRequest) (*GetEventCountResponse, error) {
	return nil, unimplemented("GetEventCount")
}
func (UnimplementedLedgerServiceServer) IsAuthorized(context.Context, *IsAuthorizedRequest) (*IsAuthorizedResponse, error) {
	return nil, unimplemented("IsAuthorized")
}
func (UnimplementedLedgerServiceServer) GetTotalProducts(context.Context, *GetTotalProductsRequest) (*GetTotalProductsResponse, error) {
	return nil, unimplemented("GetTotalProducts")
}
func (UnimplementedLedgerServiceServer) ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error) {
	return nil, unimplemented("ListEvents")
}
func (UnimplementedLedgerServiceServer) ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error) {
	return nil, unimplemented("ListProducts")
}
func (UnimplementedLedgerServiceServer) VerifyIntegrity(context.Context, *VerifyIntegrityRequest) (*VerifyIntegrityResponse, error) {
	return nil, unimplemented("VerifyIntegrity")
}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// LedgerService_ServiceDesc describes ledger.v1.LedgerService for grpc.Server.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("RegisterProduct", LedgerServiceServer.RegisterProduct),
		unaryMethod("RecordEvent", LedgerServiceServer.RecordEvent),
		unaryMethod("UpdateStatus", LedgerServiceServer.UpdateStatus),
		unaryMethod("TransferCustody", LedgerServiceServer.TransferCustody),
		unaryMethod("AuthorizeHandler", LedgerServiceServer.AuthorizeHandler),
		unaryMethod("RevokeHandler", LedgerServiceServer.RevokeHandler),
		unaryMethod("GetProduct", LedgerServiceServer.GetProduct),
		unaryMethod("GetEvent", LedgerServiceServer.GetEvent),
		unaryMethod("GetEventCount", LedgerServiceServer.GetEventCount),
		unaryMethod("IsAuthorized", LedgerServiceServer.IsAuthorized),
		unaryMethod("GetTotalProducts", LedgerServiceServer.GetTotalProducts),
		unaryMethod("ListEvents", LedgerServiceServer.ListEvents),
		unaryMethod("ListProducts", LedgerServiceServer.ListProducts),
		unaryMethod("VerifyIntegrity", LedgerServiceServer.VerifyIntegrity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/ledger/v1/service.go",
}

func unaryMethod[Req, Resp any](name string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(LedgerServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
