// Package records streams header-driven rows out of a delimited text source.
package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LookupEncoding resolves a configured encoding name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-8", "utf8":
		// Strips a leading byte order mark so it cannot leak into the first header.
		return unicode.UTF8BOM, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", name)
	}
}

// Reader decodes rows lazily; only the current row is held in memory.
type Reader struct {
	csv    *csv.Reader
	header []string
	rows   int
}

// NewReader wraps r with a decoder for enc. The header is read on the first
// call to Next.
func NewReader(r io.Reader, enc encoding.Encoding) *Reader {
	if enc == nil {
		enc = charmap.ISO8859_1
	}
	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return &Reader{csv: cr}
}

// Next returns the next data row, or io.EOF once the source is exhausted.
// An empty source (no header) is simply io.EOF.
func (r *Reader) Next() (Record, error) {
	if r.header == nil {
		header, err := r.csv.Read()
		if err != nil {
			return Record{}, err
		}
		r.header = header
	}

	values, err := r.csv.Read()
	if err != nil {
		return Record{}, err
	}
	r.rows++
	return NewRecord(r.header, values), nil
}

// Header returns the field names, or nil before the first Next.
func (r *Reader) Header() []string {
	return r.header
}

// RowsRead counts data rows returned so far.
func (r *Reader) RowsRead() int {
	return r.rows
}
