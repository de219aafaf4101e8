package model

import "time"

// Watermark maps a source full name to the most recent persisted event time (UTC).
// A missing entry means the source has no prior data.
type Watermark map[string]time.Time

// Lookup returns the watermark of a source
func (w Watermark) Lookup(ref SourceRef) (time.Time, bool) {
	if w == nil {
		return time.Time{}, false
	}
	t, ok := w[ref.FullName()]
	return t, ok
}

// GroupMax is one row of a "max(value) group by key" query against the sink.
// Value keeps the representation returned by the store (time.Time, string, []byte or nil).
type GroupMax struct {
	Group string
	Value any
}
