// Package auth issues and verifies the bearer tokens that name a ledger
// caller.
//
// Tokens are EdDSA-signed JWTs. The subject claim is the caller identity the
// ledger core authorizes against; issuer and audience pin a token to one
// ledger deployment. Identity management itself lives outside the ledger:
// whoever holds the private key vouches for subjects.
package auth
