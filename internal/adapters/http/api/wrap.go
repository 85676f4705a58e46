package api

import "fmt"

// Wrap annotates err with the operation that produced it.
func Wrap(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

// NewKind produces an operation-scoped error of a sentinel kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind produces an operation-scoped error of a sentinel kind with a cause.
func WrapKind(op string, kind error, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}
