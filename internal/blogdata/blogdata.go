// Package blogdata is a small blog domain (users, posts, comments) wired
// through the mapper the way generated bindings would be. It exists for
// tests and examples; the descriptor tables and record types mirror what
// the code-generation step emits for a real schema.
package blogdata

import (
	"relmap/registry"
	"relmap/schema"
)

var UserMeta = &schema.EntityMetadata{
	Name:     "User",
	Table:    "users",
	PKColumn: "id",
	PKField:  "id",
	PKAuto:   true,
	Columns: []schema.Column{
		{Name: "id", Field: "id", PrimaryKey: true, AutoIncrement: true},
		{Name: "email", Field: "email"},
		{Name: "name", Field: "name", Nullable: true},
		{Name: "created_at", Field: "createdAt"},
	},
	Relations: []schema.RelationDescriptor{
		{
			Name:            "posts",
			Kind:            schema.HasMany,
			TargetEntity:    "Post",
			TargetTable:     "posts",
			FKColumn:        "author_id",
			CurrentPKColumn: "id",
			TargetPKColumn:  "id",
			FKNullable:      true,
		},
	},
}

var PostMeta = &schema.EntityMetadata{
	Name:     "Post",
	Table:    "posts",
	PKColumn: "id",
	PKField:  "id",
	PKAuto:   true,
	Columns: []schema.Column{
		{Name: "id", Field: "id", PrimaryKey: true, AutoIncrement: true},
		{Name: "title", Field: "title"},
		{Name: "published", Field: "published"},
		{Name: "views", Field: "views"},
		{Name: "author_id", Field: "authorId", Nullable: true},
		{Name: "metadata", Field: "metadata", Nullable: true, JSON: true},
	},
	Relations: []schema.RelationDescriptor{
		{
			Name:            "author",
			Kind:            schema.BelongsTo,
			TargetEntity:    "User",
			TargetTable:     "users",
			FKColumn:        "author_id",
			FKField:         "authorId",
			CurrentPKColumn: "id",
			TargetPKColumn:  "id",
			FKNullable:      true,
		},
		{
			Name:            "comments",
			Kind:            schema.HasMany,
			TargetEntity:    "Comment",
			TargetTable:     "comments",
			FKColumn:        "post_id",
			CurrentPKColumn: "id",
			TargetPKColumn:  "id",
		},
	},
}

var CommentMeta = &schema.EntityMetadata{
	Name:     "Comment",
	Table:    "comments",
	PKColumn: "id",
	PKField:  "id",
	PKAuto:   true,
	Columns: []schema.Column{
		{Name: "id", Field: "id", PrimaryKey: true, AutoIncrement: true},
		{Name: "body", Field: "body"},
		{Name: "post_id", Field: "postId"},
	},
	Relations: []schema.RelationDescriptor{
		{
			Name:            "post",
			Kind:            schema.BelongsTo,
			TargetEntity:    "Post",
			TargetTable:     "posts",
			FKColumn:        "post_id",
			FKField:         "postId",
			CurrentPKColumn: "id",
			TargetPKColumn:  "id",
		},
	},
}

// Register wires the three entities into reg.
func Register(reg *registry.Registry) error {
	bindings := []*schema.Binding{
		{
			Meta:       UserMeta,
			NewRecord:  func() schema.Record { return &User{} },
			NewPartial: func() schema.Record { return &UserPartial{} },
		},
		{
			Meta:       PostMeta,
			NewRecord:  func() schema.Record { return &Post{} },
			NewPartial: func() schema.Record { return &PostPartial{} },
		},
		{
			Meta:      CommentMeta,
			NewRecord: func() schema.Record { return &Comment{} },
		},
	}
	for _, b := range bindings {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}
