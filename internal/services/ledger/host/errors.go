package host

import apperrors "github.com/louisbranch/waybill/internal/platform/errors"

func notFound(productID string) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound, "product not found", map[string]string{"ProductID": productID})
}
