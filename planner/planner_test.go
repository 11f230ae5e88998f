package planner

import (
	"relmap/schema"
)

func userTestMeta() *schema.EntityMetadata {
	return &schema.EntityMetadata{
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
}

func postTestMeta() *schema.EntityMetadata {
	return &schema.EntityMetadata{
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
}
