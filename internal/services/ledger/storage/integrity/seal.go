package integrity

import (
	"fmt"
	"strconv"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
	"github.com/louisbranch/waybill/internal/services/ledger/domain/event"
)

// Seal fills the integrity fields of evt, chaining it to prevChainHash (empty
// for a product's first event).
func Seal(ring *Keyring, evt event.Event, prevChainHash string) (event.Event, error) {
	hash, err := event.EventHash(evt)
	if err != nil {
		return event.Event{}, err
	}
	evt.Hash = hash
	evt.PrevHash = prevChainHash

	chainHash, err := event.ChainHash(evt, prevChainHash)
	if err != nil {
		return event.Event{}, err
	}
	evt.ChainHash = chainHash

	signature, keyID, err := ring.SignChainHash(evt.ProductID, chainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("sign chain hash: %w", err)
	}
	evt.Signature = signature
	evt.SignatureKeyID = keyID
	return evt, nil
}

// ChainVerifier checks one product's events fed in index order.
type ChainVerifier struct {
	ring      *Keyring
	productID string
	next      uint64
	prevChain string
}

// NewChainVerifier starts verification of productID's chain.
func NewChainVerifier(ring *Keyring, productID string) *ChainVerifier {
	return &ChainVerifier{ring: ring, productID: productID}
}

// Check verifies the next event of the chain.
func (v *ChainVerifier) Check(evt event.Event) error {
	if evt.ProductID != v.productID {
		return v.violation(evt.Index, "event belongs to another product")
	}
	if evt.Index != v.next {
		return v.violation(evt.Index, fmt.Sprintf("index gap: expected %d", v.next))
	}
	if evt.PrevHash != v.prevChain {
		return v.violation(evt.Index, "previous hash mismatch")
	}

	hash, err := event.EventHash(evt)
	if err != nil {
		return err
	}
	if hash != evt.Hash {
		return v.violation(evt.Index, "event hash mismatch")
	}
	chainHash, err := event.ChainHash(evt, v.prevChain)
	if err != nil {
		return err
	}
	if chainHash != evt.ChainHash {
		return v.violation(evt.Index, "chain hash mismatch")
	}
	if err := v.ring.VerifyChainHash(v.productID, evt.ChainHash, evt.Signature, evt.SignatureKeyID); err != nil {
		return v.violation(evt.Index, err.Error())
	}

	v.next++
	v.prevChain = evt.ChainHash
	return nil
}

// Finish confirms that the verified chain length equals the stored counter.
func (v *ChainVerifier) Finish(eventCount uint64) error {
	if v.next != eventCount {
		return v.violation(v.next, fmt.Sprintf("event count %d does not match %d stored events", eventCount, v.next))
	}
	return nil
}

// Verified returns the number of events checked so far.
func (v *ChainVerifier) Verified() uint64 {
	return v.next
}

func (v *ChainVerifier) violation(index uint64, reason string) error {
	return apperrors.WithMetadata(apperrors.CodeIntegrityViolation, fmt.Sprintf("product %s event %d: %s", v.productID, index, reason), map[string]string{
		"ProductID": v.productID,
		"Index":     strconv.FormatUint(index, 10),
	})
}
