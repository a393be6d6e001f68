package ledgerv1

// GetProductID accessors let transport middleware read the product a call
// targets without knowing the concrete request type.

func (x *RegisterProductRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *RecordEventRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *UpdateStatusRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *TransferCustodyRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *AuthorizeHandlerRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *RevokeHandlerRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *GetProductRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *GetEventRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *GetEventCountRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *IsAuthorizedRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *ListEventsRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}

func (x *VerifyIntegrityRequest) GetProductID() string {
	if x == nil {
		return ""
	}
	return x.ProductID
}
