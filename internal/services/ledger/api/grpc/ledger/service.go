// Package ledger implements ledger.v1.LedgerService on top of the ledger host.
package ledger

import (
	"context"
	"errors"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/platform/requestctx"
	ledgercore "github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/host"
)

// Service serves ledger calls for one host.
type Service struct {
	ledgerv1.UnimplementedLedgerServiceServer
	host *host.Host
}

// NewService wires the gRPC surface to h.
func NewService(h *host.Host) (*Service, error) {
	if h == nil {
		return nil, errors.New("ledger host is not configured")
	}
	return &Service{host: h}, nil
}

func (s *Service) RegisterProduct(ctx context.Context, in *ledgerv1.RegisterProductRequest) (*ledgerv1.RegisterProductResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	productID, err := s.host.RegisterProduct(ctx, caller, ledgercore.RegisterInput{
		ID:     in.GetProductID(),
		Name:   in.Name,
		Origin: in.Origin,
		Batch:  in.Batch,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.RegisterProductResponse{ProductID: productID}, nil
}

func (s *Service) RecordEvent(ctx context.Context, in *ledgerv1.RecordEventRequest) (*ledgerv1.RecordEventResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	index, err := s.host.RecordEvent(ctx, caller, ledgercore.RecordEventInput{
		ProductID: in.GetProductID(),
		Type:      in.EventType,
		Location:  in.Location,
		Notes:     in.Notes,
	})
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.RecordEventResponse{Index: index}, nil
}

func (s *Service) UpdateStatus(ctx context.Context, in *ledgerv1.UpdateStatusRequest) (*ledgerv1.UpdateStatusResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	status, err := s.host.UpdateStatus(ctx, caller, in.GetProductID(), in.Status)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.UpdateStatusResponse{Status: status.String()}, nil
}

func (s *Service) TransferCustody(ctx context.Context, in *ledgerv1.TransferCustodyRequest) (*ledgerv1.TransferCustodyResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	newHolder, err := parseIdentity("new_holder", in.NewHolder)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	holder, err := s.host.TransferCustody(ctx, caller, in.GetProductID(), newHolder, in.Location)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.TransferCustodyResponse{Holder: holder.String()}, nil
}

func (s *Service) AuthorizeHandler(ctx context.Context, in *ledgerv1.AuthorizeHandlerRequest) (*ledgerv1.AuthorizeHandlerResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	handler, err := parseIdentity("handler", in.Handler)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	ok, err := s.host.AuthorizeHandler(ctx, caller, in.GetProductID(), handler)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.AuthorizeHandlerResponse{Authorized: ok}, nil
}

func (s *Service) RevokeHandler(ctx context.Context, in *ledgerv1.RevokeHandlerRequest) (*ledgerv1.RevokeHandlerResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	handler, err := parseIdentity("handler", in.Handler)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	ok, err := s.host.RevokeHandler(ctx, caller, in.GetProductID(), handler)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	return &ledgerv1.RevokeHandlerResponse{Revoked: ok}, nil
}

// handleDomainError converts domain errors to gRPC status in the caller's locale.
func handleDomainError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, requestctx.LocaleFromContext(ctx))
}
