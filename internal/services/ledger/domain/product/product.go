package product

import (
	"github.com/louisbranch/waybill/internal/services/ledger/domain/identity"
)

// Product is the canonical registry record.
type Product struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Manufacturer identity.Identity `json:"manufacturer"`
	Origin       string            `json:"origin"`
	// CreatedAt is the ledger height of the registering call.
	CreatedAt uint64            `json:"created_at"`
	Status    Status            `json:"status"`
	Holder    identity.Identity `json:"holder"`
	Batch     string            `json:"batch,omitempty"`
}

// IsManufacturer reports whether who registered the product.
func (p Product) IsManufacturer(who identity.Identity) bool {
	return p.Manufacturer.Equal(who)
}

// IsHolder reports whether who currently holds the product.
func (p Product) IsHolder(who identity.Identity) bool {
	return p.Holder.Equal(who)
}
