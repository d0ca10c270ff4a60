package mocks

import (
	"context"
	"sync"

	"github.com/justjun/blog-api/internal/docstore"
)

// RecordingStore wraps a document store and counts every call made
// through it. Injected errors are returned before the inner store is hit.
type RecordingStore struct {
	Inner docstore.Store

	mu       sync.Mutex
	calls    map[string]int
	AddError error
	GetError error
}

// Verify interface compliance
var _ docstore.Store = (*RecordingStore)(nil)

func NewRecordingStore(inner docstore.Store) *RecordingStore {
	return &RecordingStore{Inner: inner, calls: make(map[string]int)}
}

func (s *RecordingStore) Collection(name string) docstore.Collection {
	return &recordingCollection{store: s, inner: s.Inner.Collection(name)}
}

func (s *RecordingStore) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

// Calls returns how many times op ("add", "get", "update", "delete",
// "query") was invoked
func (s *RecordingStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of calls of any kind
func (s *RecordingStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Writes returns the number of mutating calls
func (s *RecordingStore) Writes() int {
	return s.Calls("add") + s.Calls("update") + s.Calls("delete")
}

// Reset clears the call counters
func (s *RecordingStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

type recordingCollection struct {
	store *RecordingStore
	inner docstore.Collection
}

func (c *recordingCollection) Add(ctx context.Context, fields docstore.Fields) (string, error) {
	c.store.record("add")
	if c.store.AddError != nil {
		return "", c.store.AddError
	}
	return c.inner.Add(ctx, fields)
}

func (c *recordingCollection) Get(ctx context.Context, id string) (*docstore.Snapshot, error) {
	c.store.record("get")
	if c.store.GetError != nil {
		return nil, c.store.GetError
	}
	return c.inner.Get(ctx, id)
}

func (c *recordingCollection) Update(ctx context.Context, id string, fields docstore.Fields) error {
	c.store.record("update")
	return c.inner.Update(ctx, id, fields)
}

func (c *recordingCollection) Delete(ctx context.Context, id string) error {
	c.store.record("delete")
	return c.inner.Delete(ctx, id)
}

func (c *recordingCollection) Query(ctx context.Context, q docstore.Query) ([]*docstore.Snapshot, error) {
	c.store.record("query")
	return c.inner.Query(ctx, q)
}
