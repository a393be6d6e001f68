package grpc

import "context"

// BearerToken attaches an authorization header to outgoing calls.
type BearerToken string

// GetRequestMetadata implements credentials.PerRPCCredentials.
func (t BearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	if t == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

// RequireTransportSecurity implements credentials.PerRPCCredentials.
// Ledger deployments terminate TLS in front of the server.
func (BearerToken) RequireTransportSecurity() bool {
	return false
}
