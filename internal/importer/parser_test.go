package importer

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accountA = uuid.MustParse("0b1f7c59-2b57-4d7c-8a3e-59e8d1a0c001")
	accountB = uuid.MustParse("0b1f7c59-2b57-4d7c-8a3e-59e8d1a0c002")
)

func TestParse(t *testing.T) {
	type testCase struct {
		name        string
		content     string
		wantValues  []string
		wantLines   []int
		wantInvalid []int
		wantErr     error
	}

	tests := []testCase{
		{
			name: "CommaDelimited",
			content: "source_account_id,target_account_id,value\n" +
				accountA.String() + "," + accountB.String() + ",100.50\n" +
				accountB.String() + "," + accountA.String() + ",7\n",
			wantValues: []string{"100.5", "7"},
			wantLines:  []int{2, 3},
		},
		{
			name: "SemicolonWithPreambleAndEuropeanValues",
			content: "Transferências agendadas;31-01-2026\n" +
				"\n" +
				"Conta origem;Conta destino;Valor\n" +
				accountA.String() + ";" + accountB.String() + ";1.234,56 EUR\n",
			wantValues: []string{"1234.56"},
			wantLines:  []int{4},
		},
		{
			name: "ColumnsInAnyOrder",
			content: "amount\tsource\ttarget\n" +
				"12.00\t" + accountA.String() + "\t" + accountB.String() + "\n",
			wantValues: []string{"12"},
			wantLines:  []int{2},
		},
		{
			name: "BadRowsAreReported",
			content: "source,target,value\n" +
				"not-a-uuid," + accountB.String() + ",1\n" +
				accountA.String() + ",,1\n" +
				accountA.String() + "," + accountB.String() + ",abc\n" +
				"\n" +
				accountA.String() + "," + accountB.String() + ",3\n",
			wantValues:  []string{"3"},
			wantLines:   []int{6},
			wantInvalid: []int{2, 3, 4},
		},
		{
			name:    "Empty",
			content: "",
		},
		{
			name:    "HeaderOnly",
			content: "source,target,value\n",
		},
		{
			name:    "MissingHeader",
			content: accountA.String() + "," + accountB.String() + ",3\n",
			wantErr: ErrNoHeader,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := Parse(strings.NewReader(tt.content))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, batch.Rows, len(tt.wantValues))

			for i, row := range batch.Rows {
				assert.Equal(t, tt.wantValues[i], row.Params.Value.String())
				assert.Equal(t, tt.wantLines[i], row.Line)
				assert.NotEqual(t, uuid.Nil, row.Params.SourceAccountID)
				assert.NotEqual(t, uuid.Nil, row.Params.TargetAccountID)
			}

			var invalid []int
			for _, e := range batch.Invalid {
				invalid = append(invalid, e.Line)
			}

			assert.Equal(t, tt.wantInvalid, invalid)
		})
	}
}

func TestParseValue(t *testing.T) {
	type testCase struct {
		in      string
		comma   rune
		want    string
		wantErr bool
	}

	tests := []testCase{
		{in: "10.25", comma: ',', want: "10.25"},
		{in: "1.234,56", comma: ';', want: "1234.56"},
		{in: "-588,74", comma: ';', want: "-588.74"},
		{in: "10,00 €", comma: ';', want: "10"},
		{in: "15.5", comma: ';', want: "15.5"},
		{in: "", comma: ',', wantErr: true},
		{in: "ten", comma: ',', wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseValue(tt.in, tt.comma)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}
