package bus_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txflow/internal/bus"
)

type sample struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Amount *int64    `json:"amount" validate:"required"`
	Note   string    `json:"note"`
}

func TestDecode(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name    string
		payload string
		wantErr error
		verify  func(t *testing.T, got *sample)
	}

	tests := []testCase{
		{
			name:    "Valid",
			payload: `{"id":"` + id.String() + `","amount":42,"note":"x"}`,
			verify: func(t *testing.T, got *sample) {
				assert.Equal(t, id, got.ID)
				assert.Equal(t, int64(42), *got.Amount)
				assert.Equal(t, "x", got.Note)
			},
		},
		{
			name:    "UnknownFieldsIgnored",
			payload: `{"id":"` + id.String() + `","amount":0,"extra":true}`,
			verify: func(t *testing.T, got *sample) {
				assert.Equal(t, int64(0), *got.Amount)
			},
		},
		{
			name:    "MissingRequiredField",
			payload: `{"id":"` + id.String() + `"}`,
			wantErr: bus.ErrMalformedPayload,
		},
		{
			name:    "ZeroID",
			payload: `{"id":"00000000-0000-0000-0000-000000000000","amount":1}`,
			wantErr: bus.ErrMalformedPayload,
		},
		{
			name:    "Syntax",
			payload: `{"id":`,
			wantErr: bus.ErrMalformedPayload,
		},
		{
			name:    "WrongType",
			payload: `{"id":"` + id.String() + `","amount":"lots"}`,
			wantErr: bus.ErrMalformedPayload,
		},
		{
			name:    "Null",
			payload: `null`,
			wantErr: bus.ErrEmptyPayload,
		},
		{
			name:    "Blank",
			payload: "  \n",
			wantErr: bus.ErrEmptyPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bus.Decode[sample]([]byte(tt.payload))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			tt.verify(t, got)
		})
	}
}

func TestEncode_FieldNamed(t *testing.T) {
	amount := int64(7)

	data, err := bus.Encode(sample{ID: uuid.Nil, Amount: &amount, Note: "n"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"00000000-0000-0000-0000-000000000000","amount":7,"note":"n"}`, string(data))
}
