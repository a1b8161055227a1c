package transaction

import "errors"

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrValidation      = errors.New("invalid transaction")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStatusConflict  = errors.New("transaction already settled with a different status")
)
