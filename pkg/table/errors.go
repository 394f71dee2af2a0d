package table

import "errors"

var (
	// ErrMissingKey indicates Options.Key was empty.
	ErrMissingKey = errors.New("table: Key is required")
	// ErrNegativeOption indicates IndexCache or IndexData was negative.
	ErrNegativeOption = errors.New("table: cache size must not be negative")
	// ErrInvalidKeyValue indicates a key passed to At does not validate
	// against the key column's type and width.
	ErrInvalidKeyValue = errors.New("table: key value does not match key column")
	// ErrInvalidField indicates a non-key column value left on the row
	// snapshot by a body does not validate against its declared type/width.
	ErrInvalidField = errors.New("table: field value does not match column")
	// ErrBodyPanic indicates a transaction body panicked; the panic value is
	// wrapped into the returned error rather than propagating out of
	// Submit's goroutine.
	ErrBodyPanic = errors.New("table: transaction body panicked")
	// ErrClosed indicates an operation was attempted on a closed table.
	ErrClosed = errors.New("table: closed")
)
