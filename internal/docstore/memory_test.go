package docstore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/justjun/blog-api/internal/docstore"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore() *docstore.MemoryStore {
	clock := &stepClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	n := 0
	return docstore.NewMemory(
		docstore.WithClock(clock.now),
		docstore.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("doc-%d", n)
		}),
	)
}

func TestMemoryStore_AddResolvesServerTimestamp(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	posts := store.Collection("posts")

	id, err := posts.Add(ctx, docstore.Fields{
		"title":     "Hello",
		"createdAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	snap, err := posts.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap == nil {
		t.Fatal("expected document")
	}

	want := "2024-03-01T09:00:01.000000000Z"
	if snap.Data["createdAt"] != want {
		t.Errorf("Expected createdAt %s, got %v", want, snap.Data["createdAt"])
	}
	if snap.Data["createdAt"] != snap.Data["updatedAt"] {
		t.Error("createdAt and updatedAt should resolve to the same instant")
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := newStore()

	snap, err := store.Collection("posts").Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap != nil {
		t.Error("expected nil snapshot for missing document")
	}
}

func TestMemoryStore_UpdateMerges(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	posts := store.Collection("posts")

	id, _ := posts.Add(ctx, docstore.Fields{"title": "Hello", "isDeleted": false})

	if err := posts.Update(ctx, id, docstore.Fields{"isDeleted": true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	snap, _ := posts.Get(ctx, id)
	if snap.Data["title"] != "Hello" {
		t.Error("Update should keep untouched fields")
	}
	if snap.Data["isDeleted"] != true {
		t.Error("Update should overwrite given fields")
	}

	err := posts.Update(ctx, "missing", docstore.Fields{"isDeleted": true})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	projects := store.Collection("projects")

	id, _ := projects.Add(ctx, docstore.Fields{"title": "Site"})

	for i := 0; i < 2; i++ {
		if err := projects.Delete(ctx, id); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}
	if store.Len("projects") != 0 {
		t.Errorf("Expected empty collection, got %d", store.Len("projects"))
	}
}

func TestMemoryStore_QueryNotTrue(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	store.Put("posts", "absent", map[string]interface{}{"title": "no flag"})
	store.Put("posts", "null", map[string]interface{}{"title": "null flag", "isDeleted": nil})
	store.Put("posts", "false", map[string]interface{}{"title": "false flag", "isDeleted": false})
	store.Put("posts", "false-string", map[string]interface{}{"title": "false string", "isDeleted": "false"})
	store.Put("posts", "true", map[string]interface{}{"title": "deleted", "isDeleted": true})
	store.Put("posts", "true-string", map[string]interface{}{"title": "deleted form", "isDeleted": "true"})
	store.Put("posts", "on", map[string]interface{}{"title": "deleted checkbox", "isDeleted": "on"})

	snaps, err := store.Collection("posts").Query(ctx, docstore.Query{}.WhereNotTrue("isDeleted"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(snaps) != 4 {
		t.Fatalf("Expected 4 active documents, got %d", len(snaps))
	}
	for _, s := range snaps {
		if docstore.Truthy(s.Data["isDeleted"]) {
			t.Errorf("deleted document %s should be excluded", s.ID)
		}
	}

	snaps, err = store.Collection("posts").Query(ctx, docstore.Query{}.WhereTruthy("isDeleted"))
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(snaps) != 3 {
		t.Errorf("Expected 3 deleted documents, got %d", len(snaps))
	}
}

func TestMemoryStore_QueryTimeOrderMixedShapes(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	posts := store.Collection("posts")

	store.Put("posts", "seconds-2023", map[string]interface{}{
		"createdAt": map[string]interface{}{"_seconds": 1672531200, "_nanoseconds": 0},
	})
	store.Put("posts", "millis-2023", map[string]interface{}{
		"createdAt": 1675209600000, // 2023-02-01
	})
	store.Put("posts", "offset-2023", map[string]interface{}{
		"createdAt": "2023-03-01T02:00:00+02:00",
	})
	store.Put("posts", "unknown", map[string]interface{}{"createdAt": "soon"})
	id, err := posts.Add(ctx, docstore.Fields{"createdAt": docstore.ServerTimestamp}) // 2024-03-01
	if err != nil {
		t.Fatal(err)
	}

	snaps, err := posts.Query(ctx, docstore.Query{OrderBy: "createdAt", Descending: true, TimeOrder: true})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	want := []string{id, "offset-2023", "millis-2023", "seconds-2023", "unknown"}
	if len(snaps) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(snaps))
	}
	for i, w := range want {
		if snaps[i].ID != w {
			t.Errorf("position %d: expected %s, got %s", i, w, snaps[i].ID)
		}
	}
}

func TestMemoryStore_QueryOrderAndLimit(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	posts := store.Collection("posts")

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := posts.Add(ctx, docstore.Fields{
			"title":     fmt.Sprintf("post %d", i),
			"slug":      fmt.Sprintf("post-%d", i),
			"createdAt": docstore.ServerTimestamp,
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	snaps, err := posts.Query(ctx, docstore.Query{OrderBy: "createdAt", Descending: true, Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(snaps))
	}
	if snaps[0].ID != ids[3] || snaps[1].ID != ids[2] {
		t.Errorf("Expected newest first, got %s, %s", snaps[0].ID, snaps[1].ID)
	}

	snaps, _ = posts.Query(ctx, docstore.Query{}.Where("slug", "post-1"))
	if len(snaps) != 1 || snaps[0].ID != ids[1] {
		t.Errorf("Expected single slug match, got %d results", len(snaps))
	}
}

func TestTimeKey(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"fixed layout", "2024-03-01T09:00:01.000000000Z", "2024-03-01T09:00:01.000000000Z"},
		{"rfc3339 offset", "2024-03-01T11:00:01+02:00", "2024-03-01T09:00:01.000000000Z"},
		{"plain date", "2024-03-01", "2024-03-01T00:00:00.000000000Z"},
		{"epoch millis", float64(1709283601000), "2024-03-01T09:00:01.000000000Z"},
		{"underscored object", map[string]interface{}{"_seconds": float64(1709283601), "_nanoseconds": float64(5)}, "2024-03-01T09:00:01.000000005Z"},
		{"plain object", map[string]interface{}{"seconds": float64(1709283601)}, "2024-03-01T09:00:01.000000000Z"},
		{"garbage", "yesterday", ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := docstore.TimeKey(tt.value); got != tt.want {
				t.Errorf("TimeKey(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []interface{}{true, "true", "on"} {
		if !docstore.Truthy(v) {
			t.Errorf("expected %v to be truthy", v)
		}
	}
	for _, v := range []interface{}{false, "false", "off", "", nil, float64(1)} {
		if docstore.Truthy(v) {
			t.Errorf("expected %v not to be truthy", v)
		}
	}
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	posts := store.Collection("posts")

	id, _ := posts.Add(ctx, docstore.Fields{"title": "Hello"})
	snap, _ := posts.Get(ctx, id)
	snap.Data["title"] = "mutated"

	again, _ := posts.Get(ctx, id)
	if again.Data["title"] != "Hello" {
		t.Error("mutating a snapshot must not change the stored document")
	}
}
