// Package docstore is a schemaless document database addressed by
// collection name. Documents are JSON objects; ids are assigned on Add.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Update when the target document does not exist
var ErrNotFound = errors.New("document not found")

// TimestampLayout is the fixed-width UTC encoding of stored timestamps.
// Lexical order of encoded values equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Fields is a partial or complete document body
type Fields map[string]interface{}

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock at write time
var ServerTimestamp = serverTimestamp{}

// Op is a filter operator
type Op int

const (
	// Equal matches documents whose field equals the value
	Equal Op = iota
	// NotTrue matches documents whose field is not Truthy
	NotTrue
	// IsTruthy matches documents whose field is Truthy
	IsTruthy
)

// Filter restricts a query to matching documents
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Query selects documents from one collection. With TimeOrder set, OrderBy
// values are compared by their TimeKey instead of their raw encoding.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	TimeOrder  bool
	Limit      int
}

// Where returns a copy of q with an additional Equal filter
func (q Query) Where(field string, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: Equal, Value: value})
	return q
}

// WhereNotTrue returns a copy of q with an additional NotTrue filter
func (q Query) WhereNotTrue(field string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: NotTrue})
	return q
}

// WhereTruthy returns a copy of q with an additional IsTruthy filter
func (q Query) WhereTruthy(field string) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: IsTruthy})
	return q
}

// Snapshot is a document read from a collection
type Snapshot struct {
	ID   string
	Data map[string]interface{}
}

// Collection is a named set of documents
type Collection interface {
	Add(ctx context.Context, fields Fields) (string, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q Query) ([]*Snapshot, error)
}

// Store hands out collections
type Store interface {
	Collection(name string) Collection
}

// FormatTime encodes t with TimestampLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Truthy reports whether a stored flag is set. Older documents were written
// from HTML forms and carry "true" or "on" instead of a boolean.
func Truthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "on"
	}
	return false
}

// ParseTime decodes a stored timestamp in any shape documents have carried:
// RFC 3339 strings, plain dates, epoch milliseconds and seconds/nanoseconds
// objects with or without a leading underscore.
func ParseTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, val); err == nil {
				return t.UTC(), true
			}
		}
	case float64:
		return time.UnixMilli(int64(val)).UTC(), true
	case map[string]interface{}:
		secs, ok := val["_seconds"].(float64)
		if !ok {
			secs, ok = val["seconds"].(float64)
		}
		if ok {
			nanos, ok := val["_nanoseconds"].(float64)
			if !ok {
				nanos, _ = val["nanoseconds"].(float64)
			}
			return time.Unix(int64(secs), int64(nanos)).UTC(), true
		}
	}
	return time.Time{}, false
}

// TimeKey returns the TimestampLayout encoding of a stored timestamp, or ""
// when v is not one. Keys order chronologically; "" sorts first.
func TimeKey(v interface{}) string {
	if t, ok := ParseTime(v); ok {
		return FormatTime(t)
	}
	return ""
}

// resolve replaces ServerTimestamp sentinels with now and encodes times with
// the fixed layout, returning the JSON body to store.
func resolve(fields Fields, now time.Time) ([]byte, error) {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = FormatTime(now)
		case time.Time:
			out[k] = FormatTime(val)
		case *time.Time:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = FormatTime(*val)
			}
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// encodeValue returns the canonical JSON form of a filter value
func encodeValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case time.Time:
		v = FormatTime(val)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode filter value: %w", err)
	}
	return string(raw), nil
}
