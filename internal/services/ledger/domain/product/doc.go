// Package product defines the registry record tracked by the ledger and the
// bounds every product field must respect.
//
// A product is never deleted. Its manufacturer and creation height are fixed
// at registration; its status label and holder change through the ledger
// operations only.
package product
