package bus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode serialises payload into its wire form.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	return data, nil
}

// Decode parses data into a T. Unknown fields are ignored; a syntax error or a
// missing `validate:"required"` field yields ErrMalformedPayload and a JSON
// null yields ErrEmptyPayload.
func Decode[T any](data []byte) (*T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}

	var v *T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	if v == nil {
		return nil, ErrEmptyPayload
	}

	if err := validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return v, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	return v, nil
}
