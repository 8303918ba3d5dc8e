package records

// Record is one decoded data row keyed by the header names. Values keeps
// header order so joined row text is stable.
type Record struct {
	header []string
	values []string
}

// NewRecord zips values against header. Values beyond the header are dropped;
// header names past the end of values are absent.
func NewRecord(header, values []string) Record {
	if len(values) > len(header) {
		values = values[:len(header)]
	}
	return Record{header: header, values: values}
}

// Get returns the value for name and whether the row carried that field.
// With duplicate header names the last column wins.
func (r Record) Get(name string) (string, bool) {
	for i := len(r.values) - 1; i >= 0; i-- {
		if r.header[i] == name {
			return r.values[i], true
		}
	}
	return "", false
}

// GetOr returns fallback when the field is absent. A present empty value is
// returned as is.
func (r Record) GetOr(name, fallback string) string {
	if v, ok := r.Get(name); ok {
		return v
	}
	return fallback
}

// Values returns one value per distinct present field, ordered by each
// name's first column. A duplicated name contributes only its last value,
// the same one Get returns.
func (r Record) Values() []string {
	out := make([]string, 0, len(r.values))
	seen := make(map[string]bool, len(r.values))
	for i := range r.values {
		name := r.header[i]
		if seen[name] {
			continue
		}
		seen[name] = true
		v, _ := r.Get(name)
		out = append(out, v)
	}
	return out
}

// Len is the number of fields present in the row.
func (r Record) Len() int {
	return len(r.values)
}
