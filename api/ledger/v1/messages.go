package ledgerv1

// Product is the wire form of a registry record.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Origin       string `json:"origin"`
	CreatedAt    uint64 `json:"created_at"`
	Status       string `json:"status"`
	StatusKind   string `json:"status_kind"`
	Holder       string `json:"holder"`
	Batch        string `json:"batch,omitempty"`
}

// Event is the wire form of a history entry.
type Event struct {
	ProductID      string `json:"product_id"`
	Index          uint64 `json:"index"`
	Type           string `json:"type"`
	Kind           string `json:"kind"`
	Location       string `json:"location"`
	Timestamp      uint64 `json:"timestamp"`
	Handler        string `json:"handler"`
	Notes          string `json:"notes"`
	Hash           string `json:"hash"`
	PrevHash       string `json:"prev_hash"`
	ChainHash      string `json:"chain_hash"`
	SignatureKeyID string `json:"signature_key_id"`
	Signature      string `json:"signature"`
}

type RegisterProductRequest struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Origin    string `json:"origin"`
	Batch     string `json:"batch,omitempty"`
}

type RegisterProductResponse struct {
	ProductID string `json:"product_id"`
}

type RecordEventRequest struct {
	ProductID string `json:"product_id"`
	EventType string `json:"event_type"`
	Location  string `json:"location"`
	Notes     string `json:"notes,omitempty"`
}

type RecordEventResponse struct {
	Index uint64 `json:"index"`
}

type UpdateStatusRequest struct {
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

type UpdateStatusResponse struct {
	Status string `json:"status"`
}

type TransferCustodyRequest struct {
	ProductID string `json:"product_id"`
	NewHolder string `json:"new_holder"`
	Location  string `json:"location,omitempty"`
}

type TransferCustodyResponse struct {
	Holder string `json:"holder"`
}

type AuthorizeHandlerRequest struct {
	ProductID string `json:"product_id"`
	Handler   string `json:"handler"`
}

type AuthorizeHandlerResponse struct {
	Authorized bool `json:"authorized"`
}

type RevokeHandlerRequest struct {
	ProductID string `json:"product_id"`
	Handler   string `json:"handler"`
}

type RevokeHandlerResponse struct {
	Revoked bool `json:"revoked"`
}

type GetProductRequest struct {
	ProductID string `json:"product_id"`
}

// GetProductResponse reports found=false for unknown products.
type GetProductResponse struct {
	Found   bool     `json:"found"`
	Product *Product `json:"product,omitempty"`
}

type GetEventRequest struct {
	ProductID string `json:"product_id"`
	Index     uint64 `json:"index"`
}

// GetEventResponse reports found=false for unknown products or indexes.
type GetEventResponse struct {
	Found bool   `json:"found"`
	Event *Event `json:"event,omitempty"`
}

type GetEventCountRequest struct {
	ProductID string `json:"product_id"`
}

type GetEventCountResponse struct {
	Found bool   `json:"found"`
	Count uint64 `json:"count"`
}

type IsAuthorizedRequest struct {
	ProductID string `json:"product_id"`
	Handler   string `json:"handler"`
}

type IsAuthorizedResponse struct {
	Authorized bool `json:"authorized"`
}

type GetTotalProductsRequest struct{}

type GetTotalProductsResponse struct {
	Total uint64 `json:"total"`
}

type ListEventsRequest struct {
	ProductID string `json:"product_id"`
	Filter    string `json:"filter,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListEventsResponse struct {
	Events        []*Event `json:"events"`
	NextPageToken string   `json:"next_page_token,omitempty"`
}

type ListProductsRequest struct {
	Holder    string `json:"holder,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListProductsResponse struct {
	Products      []*Product `json:"products"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

// VerifyIntegrityRequest checks every product when ProductID is empty.
type VerifyIntegrityRequest struct {
	ProductID string `json:"product_id,omitempty"`
}

type VerifyIntegrityResponse struct {
	Products uint64 `json:"products"`
	Events   uint64 `json:"events"`
}
