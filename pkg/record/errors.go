package record

import "errors"

var (
	ErrUnknownVariant       = errors.New("record: unknown variant")
	ErrMissingDiscriminator = errors.New("record: missing valueType discriminator")
	ErrUnknownIntent        = errors.New("record: unknown intent")
	ErrMalformedPayload     = errors.New("record: malformed payload")
	ErrMalformedRecord      = errors.New("record: malformed record")
	ErrDuplicateVariant     = errors.New("record: variant already registered")
	ErrNilValue             = errors.New("record: value is nil")
)

// ErrorKind maps a decoding error to a short label for logs and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownVariant):
		return "unknown_variant"
	case errors.Is(err, ErrMissingDiscriminator):
		return "missing_discriminator"
	case errors.Is(err, ErrUnknownIntent):
		return "unknown_intent"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	default:
		return "other"
	}
}
