package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	enc "github.com/MrJamesThe3rd/txflow/internal/encoding"
	"github.com/MrJamesThe3rd/txflow/internal/transaction"
)

var ErrNoHeader = errors.New("no header row with source account, target account and value columns")

type column int

const (
	colSource column = iota
	colTarget
	colValue
	numColumns
)

// headerNames maps the lower-cased header labels accepted for each column.
var headerNames = map[string]column{
	"source_account_id": colSource,
	"source account":    colSource,
	"source":            colSource,
	"conta origem":      colSource,

	"target_account_id": colTarget,
	"target account":    colTarget,
	"target":            colTarget,
	"conta destino":     colTarget,

	"value":    colValue,
	"amount":   colValue,
	"valor":    colValue,
	"montante": colValue,
}

// Row is one transfer read from a file. Line is 1-based.
type Row struct {
	Line   int
	Params transaction.CreateParams
}

type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type Batch struct {
	Rows    []Row
	Invalid []RowError
}

// Parse reads a delimited transfer file. Lines above the header row are
// ignored, so exports that carry a preamble parse as-is. The delimiter is
// whichever of ';', ',' or tab is most common on the first non-empty line.
func Parse(r io.Reader) (*Batch, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	comma := sniffComma(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var (
		batch   Batch
		cols    []int
		sawRows bool
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}

		sawRows = true

		if cols == nil {
			cols = matchHeader(record)
			continue
		}

		params, err := parseRow(record, cols, comma)
		if err != nil {
			batch.Invalid = append(batch.Invalid, RowError{Line: line, Err: err})
			continue
		}

		batch.Rows = append(batch.Rows, Row{Line: line, Params: params})
	}

	if sawRows && cols == nil {
		return nil, ErrNoHeader
	}

	return &batch, nil
}

// matchHeader returns the index of every column when record is a header row,
// and nil otherwise.
func matchHeader(record []string) []int {
	idx := []int{-1, -1, -1}

	for i, cell := range record {
		col, ok := headerNames[strings.ToLower(strings.TrimSpace(cell))]
		if ok && idx[col] == -1 {
			idx[col] = i
		}
	}

	for c := range numColumns {
		if idx[c] == -1 {
			return nil
		}
	}

	return idx
}

func parseRow(record []string, cols []int, comma rune) (transaction.CreateParams, error) {
	source, err := parseAccount(cell(record, cols[colSource]))
	if err != nil {
		return transaction.CreateParams{}, fmt.Errorf("source account: %w", err)
	}

	target, err := parseAccount(cell(record, cols[colTarget]))
	if err != nil {
		return transaction.CreateParams{}, fmt.Errorf("target account: %w", err)
	}

	value, err := parseValue(cell(record, cols[colValue]), comma)
	if err != nil {
		return transaction.CreateParams{}, fmt.Errorf("value: %w", err)
	}

	return transaction.CreateParams{
		SourceAccountID: source,
		TargetAccountID: target,
		Value:           value,
	}, nil
}

func parseAccount(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, errors.New("missing")
	}

	return uuid.Parse(s)
}

func sniffComma(data []byte) rune {
	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		best, bestCount := ',', bytes.Count(line, []byte{','})

		for _, c := range []rune{';', '\t'} {
			if n := bytes.Count(line, []byte(string(c))); n > bestCount {
				best, bestCount = c, n
			}
		}

		return best
	}

	return ','
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[idx])
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
