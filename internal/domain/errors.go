package domain

import "errors"

var (
	// ErrInvalidInput signals a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedDomain signals a category outside attractions/hotels/restaurants.
	ErrUnsupportedDomain = errors.New("unsupported category")
	// ErrUnknownCity signals that no dataset sheet is configured for the city.
	ErrUnknownCity = errors.New("no data available")
	// ErrDatasetUnavailable signals an unreadable workbook or sheet.
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingTimeout signals that an embedding call exceeded its budget.
	ErrEmbeddingTimeout = errors.New("embedding timeout")
	// ErrVectorDimMismatch signals vectors of different dimensionality in one index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrPersistFailed signals a failed workbook write.
	ErrPersistFailed = errors.New("persist failed")
)

// InputError carries a caller-facing message for an input or lookup failure.
// It unwraps to one of the sentinels above so handlers can map it to a status.
type InputError struct {
	Kind    error
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return e.Kind }

// NewInputError creates an InputError of the given kind.
func NewInputError(kind error, message string) error {
	return &InputError{Kind: kind, Message: message}
}
