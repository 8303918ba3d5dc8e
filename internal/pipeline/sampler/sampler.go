// Package sampler runs the bounded linear search over a record stream.
package sampler

import (
	"io"
	"strings"

	"sector-insights/internal/pipeline/normalize"
	"sector-insights/internal/pipeline/records"
)

const (
	// MaxSampleSize caps the number of matches collected.
	MaxSampleSize = 10
	// ScanCeiling bounds rows examined; the row that trips it is not examined,
	// so at most ScanCeiling+1 rows are visited.
	ScanCeiling = 15000

	// NotAvailable stands in for projected fields the row did not carry.
	NotAvailable = "N/A"
)

// Source field names projected into a SampleItem.
const (
	FieldCompany      = "nom_estab"
	FieldActivity     = "nombre_act"
	FieldMunicipality = "municipio"
	FieldEntity       = "entidad"
	FieldSize         = "per_ocu"
)

// Query holds already-normalized search terms.
type Query struct {
	Sector string
	State  string
}

// NewQuery normalizes raw terms.
func NewQuery(sector, state string) Query {
	return Query{Sector: normalize.Text(sector), State: normalize.Text(state)}
}

// SampleItem is the projection of one matching row.
type SampleItem struct {
	Company  string `json:"Company"`
	Activity string `json:"Activity"`
	Location string `json:"Location"`
	Size     string `json:"Size"`
}

// Result is the bounded sample plus how much of the source was read.
type Result struct {
	Items       []SampleItem
	RowsScanned int
}

// RecordSource is satisfied by *records.Reader.
type RecordSource interface {
	Next() (records.Record, error)
}

// Sample scans src in order, stopping at the scan ceiling or once
// MaxSampleSize matches are collected, whichever comes first. Items is never
// nil. Only read errors from src are returned.
func Sample(src RecordSource, q Query) (Result, error) {
	res := Result{Items: make([]SampleItem, 0, MaxSampleSize)}

	for {
		if res.RowsScanned > ScanCeiling {
			break
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		res.RowsScanned++

		if Matches(RowText(rec), q) {
			res.Items = append(res.Items, Project(rec))
		}
		if len(res.Items) >= MaxSampleSize {
			break
		}
	}

	return res, nil
}

// RowText joins the non-empty values with single spaces and normalizes the
// result. Empty values contribute no separator.
func RowText(rec records.Record) string {
	parts := make([]string, 0, rec.Len())
	for _, v := range rec.Values() {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return normalize.Text(strings.Join(parts, " "))
}

// Matches is conjunctive substring containment on normalized text.
func Matches(rowText string, q Query) bool {
	return strings.Contains(rowText, q.Sector) && strings.Contains(rowText, q.State)
}

// Project maps a record onto the four reported fields.
func Project(rec records.Record) SampleItem {
	return SampleItem{
		Company:  rec.GetOr(FieldCompany, NotAvailable),
		Activity: rec.GetOr(FieldActivity, NotAvailable),
		Location: rec.GetOr(FieldMunicipality, "") + ", " + rec.GetOr(FieldEntity, ""),
		Size:     rec.GetOr(FieldSize, NotAvailable),
	}
}
