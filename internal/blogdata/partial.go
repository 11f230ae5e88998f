package blogdata

import (
	"relmap"
	"relmap/key"
	"relmap/schema"
)

// UserPartial is the projection record for users: pointer fields stay nil
// when the selection did not fetch them, which is distinct from SQL NULL
// only for non-nullable columns (the only ones a projection can prove).
type UserPartial struct {
	ID    *int64
	Email *string
	Name  *string

	// Posts may hold full or projected records depending on the nested
	// selection, so the slot keeps the record interface.
	Posts  []schema.Record
	Counts map[string]int64
}

func (u *UserPartial) Meta() *schema.EntityMetadata { return UserMeta }

func (u *UserPartial) Fill(aliases []string, values []any) error {
	for i, alias := range aliases {
		v := values[i]
		var err error
		switch alias {
		case "id":
			u.ID, err = asNullInt64(alias, v)
		case "email":
			u.Email, err = asNullString(alias, v)
		case "name":
			u.Name, err = asNullString(alias, v)
		case "createdAt":
			// Projections over users never need timestamps; tolerate the
			// alias so a full-column scan can still fill a partial.
		default:
			err = relmap.Validationf("unknown alias %q on entity %q", alias, UserMeta.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *UserPartial) KeyField(field string) (key.Key, bool) {
	if field == "id" && u.ID != nil {
		return key.Int64(*u.ID), true
	}
	return key.Key{}, false
}

func (u *UserPartial) SetRelation(name string, v *schema.RelationValue) error {
	if name != "posts" {
		return &relmap.RelationNotFoundError{Entity: UserMeta.Name, Relation: name}
	}
	u.Posts = append([]schema.Record{}, v.Many...)
	return nil
}

func (u *UserPartial) SetCount(relation string, n int64) {
	if u.Counts == nil {
		u.Counts = make(map[string]int64)
	}
	u.Counts[relation] = n
}

// PostPartial is the projection record for posts.
type PostPartial struct {
	ID       *int64
	Title    *string
	Views    *int64
	AuthorID *int64

	Author   schema.Record
	Comments []*Comment
	Counts   map[string]int64
}

func (p *PostPartial) Meta() *schema.EntityMetadata { return PostMeta }

func (p *PostPartial) Fill(aliases []string, values []any) error {
	for i, alias := range aliases {
		v := values[i]
		var err error
		switch alias {
		case "id":
			p.ID, err = asNullInt64(alias, v)
		case "title":
			p.Title, err = asNullString(alias, v)
		case "views":
			p.Views, err = asNullInt64(alias, v)
		case "authorId":
			p.AuthorID, err = asNullInt64(alias, v)
		case "published", "metadata":
			// Not carried by the projection shape; drop silently so the
			// same record works under wider selections.
		default:
			err = relmap.Validationf("unknown alias %q on entity %q", alias, PostMeta.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *PostPartial) KeyField(field string) (key.Key, bool) {
	switch field {
	case "id":
		if p.ID != nil {
			return key.Int64(*p.ID), true
		}
	case "authorId":
		if p.AuthorID != nil {
			return key.Int64(*p.AuthorID), true
		}
	}
	return key.Key{}, false
}

func (p *PostPartial) SetRelation(name string, v *schema.RelationValue) error {
	switch name {
	case "author":
		// The author side may itself be a projection, so the slot holds
		// the record interface rather than a concrete type.
		p.Author = v.One
		return nil
	case "comments":
		p.Comments = make([]*Comment, 0, len(v.Many))
		for _, rec := range v.Many {
			comment, ok := rec.(*Comment)
			if !ok {
				return relmap.Validationf("relation %q received a non-Comment record", name)
			}
			p.Comments = append(p.Comments, comment)
		}
		return nil
	}
	return &relmap.RelationNotFoundError{Entity: PostMeta.Name, Relation: name}
}

func (p *PostPartial) SetCount(relation string, n int64) {
	if p.Counts == nil {
		p.Counts = make(map[string]int64)
	}
	p.Counts[relation] = n
}
