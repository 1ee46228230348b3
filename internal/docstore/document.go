// Package docstore is an embedded document store made of named collections.
//
// Each collection is an ordered list of JSON documents persisted as one unit.
// Every operation holds the collection's lock for its full duration, and every
// write replaces the collection atomically, so readers only ever observe a
// complete collection. Distinct collections never block each other.
package docstore

import (
	"encoding/json"
	"reflect"
)

// Document is one record in a collection. Values follow encoding/json
// conventions: numbers are float64, nested objects are map[string]any.
type Document map[string]any

// Filter selects documents whose fields equal every given value.
type Filter map[string]any

// Matches reports whether every key in f is present in d with an equal value.
func (d Document) Matches(f Filter) bool {
	for key, want := range f {
		got, ok := d[key]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, normalize(want)) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// normalize converts v into the shape it has after a JSON round trip so that
// an int64 filter value compares equal to a float64 read from disk.
func normalize(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func normalizeDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = normalize(v)
	}
	return out
}
