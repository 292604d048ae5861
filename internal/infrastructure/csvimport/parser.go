// Package csvimport reads operator-supplied spreadsheets exported as CSV.
// Files may be UTF-8 (with or without BOM) or Windows-1252, which is what
// spreadsheet tools in pt-BR locales write by default, and may use comma or
// semicolon separators.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data line keyed by lowercased header
type Row struct {
	Line int
	Data map[string]string
}

// Get returns the trimmed value of column, or ""
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// Parser reads rows from a CSV document
type Parser struct {
	reader  *csv.Reader
	headers []string
	line    int
}

// NewParser detects encoding and separator, then reads the header row
func NewParser(r io.Reader) (*Parser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = bytes.NewReader(data)
	if !utf8.Valid(data) {
		src = transform.NewReader(src, charmap.Windows1252.NewDecoder())
	}

	cr := csv.NewReader(src)
	// Separators are ASCII in both encodings, so the raw bytes are enough
	cr.Comma = sniffSeparator(data)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	p := &Parser{reader: cr}
	if err := p.readHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// sniffSeparator picks ';' when the header line has more semicolons than commas
func sniffSeparator(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}
	return ','
}

func (p *Parser) readHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.line = 1

	p.headers = make([]string, len(record))
	nonEmpty := false
	for i, h := range record {
		p.headers[i] = strings.ToLower(strings.TrimSpace(h))
		nonEmpty = nonEmpty || p.headers[i] != ""
	}
	if !nonEmpty {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the normalized header names
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders lists the required columns absent from the header row
func (p *Parser) MissingHeaders(required ...string) []string {
	present := make(map[string]bool, len(p.headers))
	for _, h := range p.headers {
		present[h] = true
	}
	var missing []string
	for _, r := range required {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	return missing
}

// Next returns the next row, or io.EOF. A malformed line yields a RowError
// and parsing can continue with the following line.
func (p *Parser) Next() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, RowError{Line: p.line, Code: ErrCodeMalformedRow, Message: pe.Err.Error()}
		}
		return nil, fmt.Errorf("failed to read line %d: %w", p.line, err)
	}

	row := &Row{Line: p.line, Data: make(map[string]string, len(p.headers))}
	for i, h := range p.headers {
		if h == "" {
			continue
		}
		if i < len(record) {
			row.Data[h] = strings.TrimSpace(record[i])
		} else {
			row.Data[h] = ""
		}
	}
	return row, nil
}

// ReadAll returns every non-empty row. Malformed lines are added to errs and
// skipped. Reading stops with ErrTooManyRows once maxRows data rows were read.
func (p *Parser) ReadAll(maxRows int, errs *ErrorCollection) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		var rowErr RowError
		if errors.As(err, &rowErr) {
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return rows, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		rows = append(rows, row)
	}
}
