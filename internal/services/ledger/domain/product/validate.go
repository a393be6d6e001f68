package product

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	apperrors "github.com/louisbranch/waybill/internal/platform/errors"
)

// Field bounds in bytes.
const (
	MaxIDLength       = 64
	MaxNameLength     = 128
	MaxLocationLength = 128
	MaxStatusLength   = 32
	MaxBatchLength    = 64
)

// ValidateID checks a product identifier.
func ValidateID(id string) error {
	if id == "" {
		return invalidInput("id", "product id is required")
	}
	if len(id) > MaxIDLength {
		return invalidInput("id", fmt.Sprintf("product id exceeds %d bytes", MaxIDLength))
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return invalidInput("id", "product id must not contain whitespace or control characters")
		}
	}
	if !utf8.ValidString(id) {
		return invalidInput("id", "product id must be valid UTF-8")
	}
	return nil
}

// ValidateName checks a product display name.
func ValidateName(name string) error {
	return ValidateText("name", name, MaxNameLength, true)
}

// ValidateLocation checks an origin or location string. Empty values are
// allowed only when required is false.
func ValidateLocation(field, value string, required bool) error {
	return ValidateText(field, value, MaxLocationLength, required)
}

// ValidateBatch checks the optional batch number.
func ValidateBatch(batch string) error {
	return ValidateText("batch", batch, MaxBatchLength, false)
}

// ValidateStatusLabel checks a status label. Failures carry INVALID_STATUS.
func ValidateStatusLabel(label string) error {
	if label == "" {
		return apperrors.New(apperrors.CodeInvalidStatus, "status label is required")
	}
	if len(label) > MaxStatusLength {
		return apperrors.New(apperrors.CodeInvalidStatus, fmt.Sprintf("status label exceeds %d bytes", MaxStatusLength))
	}
	if !utf8.ValidString(label) || hasControl(label, false) {
		return apperrors.New(apperrors.CodeInvalidStatus, "status label must be printable UTF-8")
	}
	return nil
}

// ValidateText checks a single-line bounded string.
func ValidateText(field, value string, max int, required bool) error {
	if value == "" {
		if required {
			return invalidInput(field, field+" is required")
		}
		return nil
	}
	if len(value) > max {
		return invalidInput(field, fmt.Sprintf("%s exceeds %d bytes", field, max))
	}
	if !utf8.ValidString(value) || hasControl(value, false) {
		return invalidInput(field, field+" must be printable UTF-8")
	}
	return nil
}

func hasControl(value string, allowNewlines bool) bool {
	for _, r := range value {
		if allowNewlines && (r == '\n' || r == '\t') {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// ValidateMultiline checks a bounded string that may span lines.
func ValidateMultiline(field, value string, max int) error {
	if len(value) > max {
		return invalidInput(field, fmt.Sprintf("%s exceeds %d bytes", field, max))
	}
	if !utf8.ValidString(value) || hasControl(value, true) {
		return invalidInput(field, field+" must be printable UTF-8")
	}
	return nil
}

func invalidInput(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidInput, message, map[string]string{"Field": field})
}
