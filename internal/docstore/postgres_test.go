package docstore

import (
	"strings"
	"testing"
)

func TestBuildQuery(t *testing.T) {
	q := Query{OrderBy: "createdAt", Descending: true, TimeOrder: true, Limit: 20}.
		WhereNotTrue("isDeleted").
		Where("slug", "hello-world")

	sql, args, err := buildQuery("posts", q)
	if err != nil {
		t.Fatalf("buildQuery failed: %v", err)
	}

	wantSQL := "SELECT id, data FROM documents WHERE collection = $1" +
		" AND COALESCE(data->$2, 'null'::jsonb) NOT IN ('true'::jsonb, '\"true\"'::jsonb, '\"on\"'::jsonb)" +
		" AND data->$3 = $4::jsonb" +
		" ORDER BY doc_time_key(data->$5) DESC NULLS LAST, created_at DESC" +
		" LIMIT $6"
	if sql != wantSQL {
		t.Errorf("unexpected SQL:\n got: %s\nwant: %s", sql, wantSQL)
	}

	wantArgs := []interface{}{"posts", "isDeleted", "slug", `"hello-world"`, "createdAt", 20}
	if len(args) != len(wantArgs) {
		t.Fatalf("Expected %d args, got %d", len(wantArgs), len(args))
	}
	for i := range wantArgs {
		if args[i] != wantArgs[i] {
			t.Errorf("arg %d: expected %v, got %v", i, wantArgs[i], args[i])
		}
	}
}

func TestBuildQuery_TruthyAndRawOrder(t *testing.T) {
	sql, args, err := buildQuery("projects", Query{OrderBy: "title"}.WhereTruthy("featured"))
	if err != nil {
		t.Fatalf("buildQuery failed: %v", err)
	}

	wantSQL := "SELECT id, data FROM documents WHERE collection = $1" +
		" AND data->$2 IN ('true'::jsonb, '\"true\"'::jsonb, '\"on\"'::jsonb)" +
		" ORDER BY data->>$3 ASC NULLS FIRST, created_at ASC"
	if sql != wantSQL {
		t.Errorf("unexpected SQL:\n got: %s\nwant: %s", sql, wantSQL)
	}
	if len(args) != 3 || args[1] != "featured" || args[2] != "title" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestBuildQuery_NoFieldInterpolation(t *testing.T) {
	sql, _, err := buildQuery("posts", Query{}.Where("title'; DROP TABLE documents; --", "x"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sql, "DROP") {
		t.Error("field names must be bound as parameters")
	}
}

func TestBuildQuery_UnsupportedOp(t *testing.T) {
	_, _, err := buildQuery("posts", Query{Filters: []Filter{{Field: "a", Op: Op(99)}}})
	if err == nil {
		t.Error("expected error for unknown operator")
	}
}
