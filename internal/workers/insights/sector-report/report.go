package sectorreport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"sector-insights/internal/pipeline/sampler"
)

const (
	doubleRule = "======================================================================"
	singleRule = "----------------------------------------------------------------------"
)

// Infrastructure metadata printed in part III.
const (
	metaCloud   = "AWS (S3 + Bedrock)"
	metaStorage = "Amazon S3 (Streaming Mode)"
	metaStatus  = "Operational"
)

// Assemble renders the fixed four-part report. Output depends only on the
// arguments; an empty sample still renders part II with "[]".
func Assemble(q sampler.Query, narrative string, items []sampler.SampleItem, attribution string) (string, error) {
	evidence, err := encodeEvidence(items)
	if err != nil {
		return "", err
	}

	sector := strings.ToUpper(q.Sector)
	state := strings.ToUpper(q.State)

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(doubleRule)
	line("STRATEGIC INSIGHTS: %s", sector)
	line(doubleRule)
	line("")
	line("PART I: EXECUTIVE SUMMARY (AI-GENERATED)")
	line(singleRule)
	line("%s", narrative)
	line("")
	line("PART II: DATA TRACEABILITY (EVIDENCE)")
	line(singleRule)
	line("Target:  [%s] in [%s]", sector, state)
	line("")
	line("Raw Data (JSON):")
	line("%s", evidence)
	line("")
	line("PART III: INFRASTRUCTURE METADATA")
	line(singleRule)
	line("Cloud:   %s", metaCloud)
	line("Storage: %s", metaStorage)
	line("Status:  %s", metaStatus)
	line("")
	line(doubleRule)
	line("%s", attribution)
	line(doubleRule)

	return b.String(), nil
}

// encodeEvidence pretty-prints the sample without HTML escaping so accented
// text and symbols stay readable.
func encodeEvidence(items []sampler.SampleItem) (string, error) {
	if items == nil {
		items = []sampler.SampleItem{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		return "", fmt.Errorf("encode evidence: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
