package recycling

import (
	"strings"
	"time"
)

// EventKind tells a first diploma apart from the recycling of an existing certification.
type EventKind string

const (
	EventDiploma   EventKind = "diploma"
	EventRecycling EventKind = "recycling"
)

// ParseEventKind accepts "diploma" and "recycling" (case-insensitive).
func ParseEventKind(raw string) (EventKind, bool) {
	switch EventKind(strings.ToLower(strings.TrimSpace(raw))) {
	case EventDiploma:
		return EventDiploma, true
	case EventRecycling:
		return EventRecycling, true
	}
	return "", false
}

// RecyclingIndex maps a normalized certification name to the recycling dates seen in a holder's history.
type RecyclingIndex map[string]map[string]struct{}

// Has reports whether date was recorded as a recycling date for the normalized name.
func (idx RecyclingIndex) Has(key string, date time.Time) bool {
	dates, ok := idx[key]
	if !ok {
		return false
	}
	_, ok = dates[dateKey(date)]
	return ok
}

// Classifier infers event kinds from a holder's training history.
//
// Matching is by date only: a coincidental date shared with an unrelated recycling of the same
// certification is classified as recycling.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier builds a classifier; a nil catalog falls back to DefaultCatalog.
func NewClassifier(catalog *Catalog) *Classifier {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Classifier{catalog: catalog}
}

// Index collects the last recycling dates of every record in history.
func (c *Classifier) Index(history []Record) RecyclingIndex {
	idx := make(RecyclingIndex)
	for _, record := range history {
		if record.LastRecycledDate == nil || record.LastRecycledDate.IsZero() {
			continue
		}
		key := c.catalog.Normalize(record.Title)
		if idx[key] == nil {
			idx[key] = make(map[string]struct{})
		}
		idx[key][dateKey(*record.LastRecycledDate)] = struct{}{}
	}
	return idx
}

// Classify labels a trainer-recorded event as recycling when its date matches a known recycling date.
func (c *Classifier) Classify(idx RecyclingIndex, title string, date time.Time) EventKind {
	if idx.Has(c.catalog.Normalize(title), date) {
		return EventRecycling
	}
	return EventDiploma
}

// Resolve prefers an explicitly recorded kind and falls back to Classify for legacy rows.
func (c *Classifier) Resolve(explicit *EventKind, idx RecyclingIndex, title string, date time.Time) EventKind {
	if explicit != nil {
		if kind, ok := ParseEventKind(string(*explicit)); ok {
			return kind
		}
	}
	return c.Classify(idx, title, date)
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
