// ABOUTME: Document payload preparation for store writes
// ABOUTME: Strips identity, scrubs nil leaves to explicit nulls, keeps every key
package store

import (
	"encoding/json"
	"fmt"
)

// toDocument converts a record to the map shape the store persists.
// The id field is addressing metadata, not document content, so it is
// always stripped; the timestamp is overwritten with the write time.
//
// Nil leaves survive as explicit nulls: the key stays present in the
// stored document rather than being dropped. The original data relies
// on this (an unfilled visit report is `"report": null`, not a missing
// key).
func toDocument(record any, timestamp int64) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	doc = sanitize(doc).(map[string]any)
	delete(doc, "id")
	doc["timestamp"] = timestamp
	return doc, nil
}

// sanitize recursively normalizes a decoded document. Maps and slices
// are rebuilt so later mutation of the input cannot alias the payload;
// nil values pass through unchanged as explicit nulls.
func sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		clean := make(map[string]any, len(val))
		for k, item := range val {
			clean[k] = sanitize(item)
		}
		return clean
	case []any:
		clean := make([]any, len(val))
		for i, item := range val {
			clean[i] = sanitize(item)
		}
		return clean
	default:
		return v
	}
}

// fromDocument decodes a stored document back into a record, stamping
// the store-assigned id. Numeric timestamps come back as float64 from
// JSON; the round trip through the typed struct restores int64.
func fromDocument[T any](id string, doc map[string]any) (T, error) {
	var out T
	doc["id"] = id
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode document %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document %s: %w", id, err)
	}
	return out, nil
}
