package scenario

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	platformgrpc "github.com/louisbranch/waybill/internal/platform/grpc"
	"github.com/louisbranch/waybill/internal/services/ledger/auth"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/ledger"
	"github.com/louisbranch/waybill/internal/services/ledger/host"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/integrity"
	"github.com/louisbranch/waybill/internal/services/ledger/storage/memory"
)

// productView is the subset of a product that expectations compare.
type productView struct {
	Name         string
	Origin       string
	Manufacturer string
	Holder       string
	Status       string
	Batch        string
}

// backend is the ledger a scenario drives. Mutations act as actor.
type backend interface {
	Register(ctx context.Context, actor identity.Identity, in ledger.RegisterInput) error
	RecordEvent(ctx context.Context, actor identity.Identity, in ledger.RecordEventInput) (uint64, error)
	UpdateStatus(ctx context.Context, actor identity.Identity, productID, status string) error
	Transfer(ctx context.Context, actor identity.Identity, productID string, to identity.Identity, location string) error
	Authorize(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error
	Revoke(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error

	Product(ctx context.Context, productID string) (productView, bool, error)
	EventCount(ctx context.Context, productID string) (uint64, bool, error)
	IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error)
	TotalProducts(ctx context.Context) (uint64, error)
	Verify(ctx context.Context, productID string) error

	Close() error
}

// localKeyring signs events for in-process runs. A fixed key keeps digests
// comparable across replays.
func localKeyring() (*integrity.Keyring, error) {
	return integrity.NewKeyring(map[string][]byte{"scenario": []byte("waybill-scenario-journal-key")}, "scenario")
}

type hostBackend struct {
	host *host.Host
}

func newHostBackend() (*hostBackend, error) {
	keyring, err := localKeyring()
	if err != nil {
		return nil, err
	}
	store, err := memory.NewStore(keyring)
	if err != nil {
		return nil, err
	}
	h, err := host.New(store)
	if err != nil {
		return nil, err
	}
	return &hostBackend{host: h}, nil
}

func (b *hostBackend) Register(ctx context.Context, actor identity.Identity, in ledger.RegisterInput) error {
	_, err := b.host.RegisterProduct(ctx, actor, in)
	return err
}

func (b *hostBackend) RecordEvent(ctx context.Context, actor identity.Identity, in ledger.RecordEventInput) (uint64, error) {
	return b.host.RecordEvent(ctx, actor, in)
}

func (b *hostBackend) UpdateStatus(ctx context.Context, actor identity.Identity, productID, status string) error {
	_, err := b.host.UpdateStatus(ctx, actor, productID, status)
	return err
}

func (b *hostBackend) Transfer(ctx context.Context, actor identity.Identity, productID string, to identity.Identity, location string) error {
	_, err := b.host.TransferCustody(ctx, actor, productID, to, location)
	return err
}

func (b *hostBackend) Authorize(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error {
	_, err := b.host.AuthorizeHandler(ctx, actor, productID, handler)
	return err
}

func (b *hostBackend) Revoke(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error {
	_, err := b.host.RevokeHandler(ctx, actor, productID, handler)
	return err
}

func (b *hostBackend) Product(ctx context.Context, productID string) (productView, bool, error) {
	p, ok, err := b.host.GetProduct(ctx, productID)
	if err != nil || !ok {
		return productView{}, ok, err
	}
	return productView{
		Name:         p.Name,
		Origin:       p.Origin,
		Manufacturer: p.Manufacturer.String(),
		Holder:       p.Holder.String(),
		Status:       p.Status.String(),
		Batch:        p.Batch,
	}, true, nil
}

func (b *hostBackend) EventCount(ctx context.Context, productID string) (uint64, bool, error) {
	return b.host.GetEventCount(ctx, productID)
}

func (b *hostBackend) IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error) {
	return b.host.IsAuthorized(ctx, productID, handler)
}

func (b *hostBackend) TotalProducts(ctx context.Context) (uint64, error) {
	return b.host.TotalProducts(ctx)
}

func (b *hostBackend) Verify(ctx context.Context, productID string) error {
	_, err := b.host.VerifyIntegrity(ctx, productID)
	return err
}

// Digest hashes the full ledger state.
func (b *hostBackend) Digest(ctx context.Context) (string, error) {
	return b.host.StateDigest(ctx)
}

func (b *hostBackend) Close() error {
	return b.host.Store().Close()
}

// grpcBackend drives a remote ledger, minting one token per actor.
type grpcBackend struct {
	conn   *grpc.ClientConn
	client ledgerv1.LedgerServiceClient
	signer auth.SignerConfig
	tokens map[string]string
}

func newGRPCBackend(conn *grpc.ClientConn, signer auth.SignerConfig) *grpcBackend {
	return &grpcBackend{
		conn:   conn,
		client: ledgerv1.NewLedgerServiceClient(conn),
		signer: signer,
		tokens: map[string]string{},
	}
}

func (b *grpcBackend) as(actor identity.Identity) ([]grpc.CallOption, error) {
	if actor.IsZero() {
		return nil, nil
	}
	token, ok := b.tokens[actor.String()]
	if !ok {
		minted, err := auth.Mint(actor, b.signer)
		if err != nil {
			return nil, fmt.Errorf("mint token for %s: %w", actor, err)
		}
		token = minted
		b.tokens[actor.String()] = token
	}
	return []grpc.CallOption{grpc.PerRPCCredentials(platformgrpc.BearerToken(token))}, nil
}

// remoteErr turns a status error back into a domain error so expectations
// can compare codes.
func remoteErr(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.FromGRPCStatus(err)
}

func (b *grpcBackend) Register(ctx context.Context, actor identity.Identity, in ledger.RegisterInput) error {
	opts, err := b.as(actor)
	if err != nil {
		return err
	}
	_, err = b.client.RegisterProduct(ctx, &ledgerv1.RegisterProductRequest{
		ProductID: in.ID,
		Name:      in.Name,
		Origin:    in.Origin,
		Batch:     in.Batch,
	}, opts...)
	return remoteErr(err)
}

func (b *grpcBackend) RecordEvent(ctx context.Context, actor identity.Identity, in ledger.RecordEventInput) (uint64, error) {
	opts, err := b.as(actor)
	if err != nil {
		return 0, err
	}
	resp, err := b.client.RecordEvent(ctx, &ledgerv1.RecordEventRequest{
		ProductID: in.ProductID,
		EventType: in.Type,
		Location:  in.Location,
		Notes:     in.Notes,
	}, opts...)
	if err != nil {
		return 0, remoteErr(err)
	}
	return resp.Index, nil
}

func (b *grpcBackend) UpdateStatus(ctx context.Context, actor identity.Identity, productID, status string) error {
	opts, err := b.as(actor)
	if err != nil {
		return err
	}
	_, err = b.client.UpdateStatus(ctx, &ledgerv1.UpdateStatusRequest{ProductID: productID, Status: status}, opts...)
	return remoteErr(err)
}

func (b *grpcBackend) Transfer(ctx context.Context, actor identity.Identity, productID string, to identity.Identity, location string) error {
	opts, err := b.as(actor)
	if err != nil {
		return err
	}
	_, err = b.client.TransferCustody(ctx, &ledgerv1.TransferCustodyRequest{
		ProductID: productID,
		NewHolder: to.String(),
		Location:  location,
	}, opts...)
	return remoteErr(err)
}

func (b *grpcBackend) Authorize(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error {
	opts, err := b.as(actor)
	if err != nil {
		return err
	}
	_, err = b.client.AuthorizeHandler(ctx, &ledgerv1.AuthorizeHandlerRequest{ProductID: productID, Handler: handler.String()}, opts...)
	return remoteErr(err)
}

func (b *grpcBackend) Revoke(ctx context.Context, actor identity.Identity, productID string, handler identity.Identity) error {
	opts, err := b.as(actor)
	if err != nil {
		return err
	}
	_, err = b.client.RevokeHandler(ctx, &ledgerv1.RevokeHandlerRequest{ProductID: productID, Handler: handler.String()}, opts...)
	return remoteErr(err)
}

func (b *grpcBackend) Product(ctx context.Context, productID string) (productView, bool, error) {
	resp, err := b.client.GetProduct(ctx, &ledgerv1.GetProductRequest{ProductID: productID})
	if err != nil {
		return productView{}, false, remoteErr(err)
	}
	if !resp.Found || resp.Product == nil {
		return productView{}, false, nil
	}
	p := resp.Product
	return productView{
		Name:         p.Name,
		Origin:       p.Origin,
		Manufacturer: p.Manufacturer,
		Holder:       p.Holder,
		Status:       p.Status,
		Batch:        p.Batch,
	}, true, nil
}

func (b *grpcBackend) EventCount(ctx context.Context, productID string) (uint64, bool, error) {
	resp, err := b.client.GetEventCount(ctx, &ledgerv1.GetEventCountRequest{ProductID: productID})
	if err != nil {
		return 0, false, remoteErr(err)
	}
	return resp.Count, resp.Found, nil
}

func (b *grpcBackend) IsAuthorized(ctx context.Context, productID string, handler identity.Identity) (bool, error) {
	resp, err := b.client.IsAuthorized(ctx, &ledgerv1.IsAuthorizedRequest{ProductID: productID, Handler: handler.String()})
	if err != nil {
		return false, remoteErr(err)
	}
	return resp.Authorized, nil
}

func (b *grpcBackend) TotalProducts(ctx context.Context) (uint64, error) {
	resp, err := b.client.GetTotalProducts(ctx, &ledgerv1.GetTotalProductsRequest{})
	if err != nil {
		return 0, remoteErr(err)
	}
	return resp.Total, nil
}

func (b *grpcBackend) Verify(ctx context.Context, productID string) error {
	_, err := b.client.VerifyIntegrity(ctx, &ledgerv1.VerifyIntegrityRequest{ProductID: productID})
	return remoteErr(err)
}

func (b *grpcBackend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
