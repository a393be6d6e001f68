package ledger

import (
	"context"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/host"
)

func (s *Service) GetProduct(ctx context.Context, in *ledgerv1.GetProductRequest) (*ledgerv1.GetProductResponse, error) {
	p, found, err := s.host.GetProduct(ctx, in.GetProductID())
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	if !found {
		return &ledgerv1.GetProductResponse{}, nil
	}
	return &ledgerv1.GetProductResponse{Found: true, Product: productToProto(p)}, nil
}

func (s *Service) GetEvent(ctx context.Context, in *ledgerv1.GetEventRequest) (*ledgerv1.GetEventResponse, error) {
	evt, found, err := s.host.GetEvent(ctx, in.GetProductID(), in.Index)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	if !found {
		return &ledgerv1.GetEventResponse{}, nil
	}
	return &ledgerv1.GetEventResponse{Found: true, Event: eventToProto(evt)}, nil
}

func (s *Service) GetEventCount(ctx context.Context, in *ledgerv1.GetEventCountRequest) (*ledgerv1.GetEventCountResponse, error) {
	count, found, err := s.host.GetEventCount(ctx, in.GetProductID())
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.GetEventCountResponse{Found: found, Count: count}, nil
}

// IsAuthorized answers false for handler values that are not valid identities.
func (s *Service) IsAuthorized(ctx context.Context, in *ledgerv1.IsAuthorizedRequest) (*ledgerv1.IsAuthorizedResponse, error) {
	handler, err := identity.New(in.Handler)
	if err != nil {
		return &ledgerv1.IsAuthorizedResponse{}, nil
	}
	ok, err := s.host.IsAuthorized(ctx, in.GetProductID(), handler)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.IsAuthorizedResponse{Authorized: ok}, nil
}

func (s *Service) GetTotalProducts(ctx context.Context, _ *ledgerv1.GetTotalProductsRequest) (*ledgerv1.GetTotalProductsResponse, error) {
	total, err := s.host.TotalProducts(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.GetTotalProductsResponse{Total: total}, nil
}

func (s *Service) ListEvents(ctx context.Context, in *ledgerv1.ListEventsRequest) (*ledgerv1.ListEventsResponse, error) {
	page, err := s.host.ListEvents(ctx, host.ListEventsRequest{
		ProductID: in.GetProductID(),
		Filter:    in.Filter,
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	out := &ledgerv1.ListEventsResponse{
		Events:        make([]*ledgerv1.Event, 0, len(page.Events)),
		NextPageToken: page.NextPageToken,
	}
	for _, evt := range page.Events {
		out.Events = append(out.Events, eventToProto(evt))
	}
	return out, nil
}

func (s *Service) ListProducts(ctx context.Context, in *ledgerv1.ListProductsRequest) (*ledgerv1.ListProductsResponse, error) {
	holder, err := parseIdentity("holder", in.Holder)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	page, err := s.host.ListProducts(ctx, host.ListProductsRequest{
		Holder:    holder,
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	out := &ledgerv1.ListProductsResponse{
		Products:      make([]*ledgerv1.Product, 0, len(page.Products)),
		NextPageToken: page.NextPageToken,
	}
	for _, p := range page.Products {
		out.Products = append(out.Products, productToProto(p))
	}
	return out, nil
}

func (s *Service) VerifyIntegrity(ctx context.Context, in *ledgerv1.VerifyIntegrityRequest) (*ledgerv1.VerifyIntegrityResponse, error) {
	report, err := s.host.VerifyIntegrity(ctx, in.GetProductID())
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.VerifyIntegrityResponse{Products: report.Products, Events: report.Events}, nil
}
