package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryDoc struct {
	data map[string]interface{}
	seq  int64
}

// MemoryStore keeps documents in process memory. Values are stored in their
// JSON-decoded form so reads match what the postgres store returns.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memoryDoc
	seq         int64
	now         func() time.Time
	newID       func() string
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock sets the clock used to resolve ServerTimestamp
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithIDGenerator sets the document id generator
func WithIDGenerator(newID func() string) MemoryOption {
	return func(s *MemoryStore) { s.newID = newID }
}

// NewMemory creates an empty in-memory store
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		collections: make(map[string]map[string]*memoryDoc),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection returns a handle to the named collection
func (s *MemoryStore) Collection(name string) Collection {
	return &memoryCollection{store: s, name: name}
}

// Len returns the number of documents in a collection
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// Put stores a raw document under a fixed id, bypassing timestamp
// resolution. Used to seed documents with historical shapes.
func (s *MemoryStore) Put(collection, id string, data map[string]interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	decoded, err := decode(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs(collection)[id] = &memoryDoc{data: decoded, seq: s.nextSeq()}
	return nil
}

func (s *MemoryStore) docs(collection string) map[string]*memoryDoc {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]*memoryDoc)
		s.collections[collection] = docs
	}
	return docs
}

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

type memoryCollection struct {
	store *MemoryStore
	name  string
}

func (c *memoryCollection) Add(ctx context.Context, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := resolve(fields, c.store.now())
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	data, err := decode(raw)
	if err != nil {
		return "", err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	id := c.store.newID()
	docs := c.store.docs(c.name)
	if _, exists := docs[id]; exists {
		return "", fmt.Errorf("document %s already exists in %s", id, c.name)
	}
	docs[id] = &memoryDoc{data: data, seq: c.store.nextSeq()}
	return id, nil
}

func (c *memoryCollection) Get(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	doc, ok := c.store.collections[c.name][id]
	if !ok {
		return nil, nil
	}
	return &Snapshot{ID: id, Data: copyData(doc.data)}, nil
}

func (c *memoryCollection) Update(ctx context.Context, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := resolve(fields, c.store.now())
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	patch, err := decode(raw)
	if err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	doc, ok := c.store.collections[c.name][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range patch {
		doc.data[k] = v
	}
	return nil
}

func (c *memoryCollection) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	delete(c.store.collections[c.name], id)
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wants := make([]string, len(q.Filters))
	for i, f := range q.Filters {
		if f.Op != Equal {
			continue
		}
		enc, err := encodeValue(f.Value)
		if err != nil {
			return nil, err
		}
		wants[i] = enc
	}

	c.store.mu.RLock()
	type hit struct {
		id  string
		doc *memoryDoc
	}
	var hits []hit
	for id, doc := range c.store.collections[c.name] {
		if matches(doc.data, q.Filters, wants) {
			hits = append(hits, hit{id: id, doc: doc})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i].doc, hits[j].doc
		if q.OrderBy != "" {
			av, bv := sortKey(a.data[q.OrderBy], q.TimeOrder), sortKey(b.data[q.OrderBy], q.TimeOrder)
			if av != bv {
				if q.Descending {
					return av > bv
				}
				return av < bv
			}
		}
		if q.Descending {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	result := make([]*Snapshot, 0, len(hits))
	for _, h := range hits {
		result = append(result, &Snapshot{ID: h.id, Data: copyData(h.doc.data)})
	}
	c.store.mu.RUnlock()

	return result, nil
}

func matches(data map[string]interface{}, filters []Filter, wants []string) bool {
	for i, f := range filters {
		v, present := data[f.Field]
		switch f.Op {
		case Equal:
			if !present {
				return false
			}
			got, err := json.Marshal(v)
			if err != nil || string(got) != wants[i] {
				return false
			}
		case NotTrue:
			if Truthy(v) {
				return false
			}
		case IsTruthy:
			if !Truthy(v) {
				return false
			}
		}
	}
	return true
}

func sortKey(v interface{}, timeOrder bool) string {
	if timeOrder {
		return TimeKey(v)
	}
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	raw, _ := json.Marshal(v)
	return string(raw)
}

func decode(raw []byte) (map[string]interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return data, nil
}

// copyData returns a deep copy so callers cannot mutate stored documents
func copyData(data map[string]interface{}) map[string]interface{} {
	raw, _ := json.Marshal(data)
	out, _ := decode(raw)
	return out
}
