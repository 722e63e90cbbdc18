package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser reads carrier exports with a header row.
type CSVParser struct {
	opts Options
}

func NewCSVParser(opts Options) *CSVParser { return &CSVParser{opts: opts} }

func (p *CSVParser) Parse(r io.Reader, source string) (Batch, error) {
	var batch Batch

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return batch, nil
	}
	if err != nil {
		return batch, fmt.Errorf("%s: read header: %w", source, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeKey(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return batch, fmt.Errorf("%s: %w %q", source, ErrMissingColumn, c)
		}
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				batch.Rejected = append(batch.Rejected, &RowError{Source: source, Line: pe.Line, Err: pe.Err})
				continue
			}
			return batch, fmt.Errorf("%s: %w", source, err)
		}

		line, _ := cr.FieldPos(0)
		if len(row) < len(header) {
			batch.Rejected = append(batch.Rejected, &RowError{
				Source: source,
				Line:   line,
				Err:    fmt.Errorf("expected %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		get := func(col string) (string, bool) {
			i, ok := cols[col]
			if !ok {
				return "", false
			}
			return strings.TrimSpace(row[i]), true
		}

		rec, rowErr := buildRecord(get, p.opts)
		if rowErr != nil {
			rowErr.Source, rowErr.Line = source, line
			batch.Rejected = append(batch.Rejected, rowErr)
			continue
		}
		rec.Source, rec.Line = source, line
		batch.Records = append(batch.Records, rec)
	}

	return batch, nil
}
