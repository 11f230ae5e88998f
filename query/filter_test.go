package query

import (
	"testing"

	"relmap/key"
)

func TestFilterString(t *testing.T) {
	cases := []struct {
		filter Filter
		want   string
	}{
		{Equals("email", "a@b.c"), "Equals(email, a@b.c)"},
		{Filter{Field: "name", Op: OpIsNull}, "IsNull(name)"},
		{Filter{Field: "id", Op: OpIn, Values: []any{1, 2}}, "In(id, [1 2])"},
		{Filter{Field: "metadata", Op: OpJSONEquals, Path: []string{"a", "b"}, Value: 1}, "JsonEquals(metadata.a.b, 1)"},
	}
	for _, tc := range cases {
		if got := tc.filter.String(); got != tc.want {
			t.Fatalf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestIncludeBuilder(t *testing.T) {
	rf := Include("posts").
		Where(Equals("published", true)).
		Select("title").
		With(Include("comments").Take(5).Build()).
		Take(10).
		Skip(2).
		OrderBy("createdAt", Desc).
		Cursor(key.Int64(99)).
		WithCount().
		Distinct().
		Build()

	if rf.Relation != "posts" {
		t.Fatalf("relation = %q", rf.Relation)
	}
	if len(rf.Filters) != 1 || rf.Filters[0].Field != "published" {
		t.Fatalf("filters = %+v", rf.Filters)
	}
	if len(rf.SelectAliases) != 1 || rf.SelectAliases[0] != "title" {
		t.Fatalf("select = %v", rf.SelectAliases)
	}
	if len(rf.Nested) != 1 || rf.Nested[0].Relation != "comments" || *rf.Nested[0].Take != 5 {
		t.Fatalf("nested = %+v", rf.Nested)
	}
	if *rf.Take != 10 || *rf.Skip != 2 {
		t.Fatalf("take/skip = %v/%v", *rf.Take, *rf.Skip)
	}
	if len(rf.OrderBy) != 1 || rf.OrderBy[0].Order != Desc {
		t.Fatalf("orderBy = %+v", rf.OrderBy)
	}
	if rf.Cursor == nil || *rf.Cursor != key.Int64(99) {
		t.Fatalf("cursor = %v", rf.Cursor)
	}
	if !rf.IncludeCount || rf.CountOnly {
		t.Fatalf("count flags = %v/%v", rf.IncludeCount, rf.CountOnly)
	}
	if !rf.Distinct {
		t.Fatal("distinct not set")
	}
}

func TestCountOnlyImpliesIncludeCount(t *testing.T) {
	rf := Include("comments").CountOnly().Build()
	if !rf.IncludeCount || !rf.CountOnly {
		t.Fatalf("count flags = %v/%v", rf.IncludeCount, rf.CountOnly)
	}
}

func TestAggregateSelectionEmpty(t *testing.T) {
	var sel AggregateSelection
	if !sel.Empty() {
		t.Fatal("zero selection must be empty")
	}
	sel.Avg = []string{"views"}
	if sel.Empty() {
		t.Fatal("selection with Avg must not be empty")
	}
}
