package sectorreport

import (
	"context"
	"io"
	"net/url"

	"sector-insights/internal/pipeline/sampler"
)

const (
	TaskType = "sector-report"

	DefaultSector = "Energia"
	DefaultState  = "Mexico"
)

// Input carries the raw, un-normalized query terms.
type Input struct {
	Sector string `json:"sector"`
	State  string `json:"state"`
}

// Query normalizes the terms for matching.
func (in Input) Query() sampler.Query {
	return sampler.NewQuery(in.Sector, in.State)
}

// InputFromValues applies defaults for absent parameters only; a parameter
// present with an empty value is kept empty. "estado" is accepted as a
// legacy alias for "state".
func InputFromValues(values url.Values) Input {
	in := Input{Sector: DefaultSector, State: DefaultState}
	if values.Has("sector") {
		in.Sector = values.Get("sector")
	}
	switch {
	case values.Has("state"):
		in.State = values.Get("state")
	case values.Has("estado"):
		in.State = values.Get("estado")
	}
	return in
}

type Output struct {
	Report      string `json:"report"`
	SampleSize  int    `json:"sampleSize"`
	RowsScanned int    `json:"rowsScanned"`
	Generated   bool   `json:"generated"`
}

// SourceFetcher opens the stored dataset as a byte stream.
type SourceFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// NarrativeGenerator is the hosted text-generation service.
type NarrativeGenerator interface {
	Generate(ctx context.Context, modelID, prompt string, maxTokens int) (string, error)
}
