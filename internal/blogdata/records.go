package blogdata

import (
	"time"

	"relmap"
	"relmap/key"
	"relmap/schema"
)

// User is the full-model record for the users table.
type User struct {
	ID        int64
	Email     string
	Name      *string
	CreatedAt time.Time

	Posts  []*Post
	Counts map[string]int64
}

func (u *User) Meta() *schema.EntityMetadata { return UserMeta }

func (u *User) Fill(aliases []string, values []any) error {
	for i, alias := range aliases {
		v := values[i]
		var err error
		switch alias {
		case "id":
			u.ID, err = asInt64(alias, v)
		case "email":
			u.Email, err = asString(alias, v)
		case "name":
			u.Name, err = asNullString(alias, v)
		case "createdAt":
			u.CreatedAt, err = asTime(alias, v)
		default:
			err = relmap.Validationf("unknown alias %q on entity %q", alias, UserMeta.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *User) KeyField(field string) (key.Key, bool) {
	if field == "id" {
		return key.Int64(u.ID), true
	}
	return key.Key{}, false
}

func (u *User) SetRelation(name string, v *schema.RelationValue) error {
	if name != "posts" {
		return &relmap.RelationNotFoundError{Entity: UserMeta.Name, Relation: name}
	}
	u.Posts = make([]*Post, 0, len(v.Many))
	for _, rec := range v.Many {
		post, ok := rec.(*Post)
		if !ok {
			return relmap.Validationf("relation %q received a non-Post record", name)
		}
		u.Posts = append(u.Posts, post)
	}
	return nil
}

func (u *User) SetCount(relation string, n int64) {
	if u.Counts == nil {
		u.Counts = make(map[string]int64)
	}
	u.Counts[relation] = n
}

// Post is the full-model record for the posts table.
type Post struct {
	ID        int64
	Title     string
	Published bool
	Views     int64
	AuthorID  *int64
	Metadata  *string

	Author   *User
	Comments []*Comment
	Counts   map[string]int64
}

func (p *Post) Meta() *schema.EntityMetadata { return PostMeta }

func (p *Post) Fill(aliases []string, values []any) error {
	for i, alias := range aliases {
		v := values[i]
		var err error
		switch alias {
		case "id":
			p.ID, err = asInt64(alias, v)
		case "title":
			p.Title, err = asString(alias, v)
		case "published":
			p.Published, err = asBool(alias, v)
		case "views":
			p.Views, err = asInt64(alias, v)
		case "authorId":
			p.AuthorID, err = asNullInt64(alias, v)
		case "metadata":
			p.Metadata, err = asNullString(alias, v)
		default:
			err = relmap.Validationf("unknown alias %q on entity %q", alias, PostMeta.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Post) KeyField(field string) (key.Key, bool) {
	switch field {
	case "id":
		return key.Int64(p.ID), true
	case "authorId":
		if p.AuthorID == nil {
			return key.Key{}, false
		}
		return key.Int64(*p.AuthorID), true
	}
	return key.Key{}, false
}

func (p *Post) SetRelation(name string, v *schema.RelationValue) error {
	switch name {
	case "author":
		if v.One == nil {
			p.Author = nil
			return nil
		}
		user, ok := v.One.(*User)
		if !ok {
			return relmap.Validationf("relation %q received a non-User record", name)
		}
		p.Author = user
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

func (p *Post) SetCount(relation string, n int64) {
	if p.Counts == nil {
		p.Counts = make(map[string]int64)
	}
	p.Counts[relation] = n
}

// Comment is the full-model record for the comments table.
type Comment struct {
	ID     int64
	Body   string
	PostID int64

	Post *Post
}

func (c *Comment) Meta() *schema.EntityMetadata { return CommentMeta }

func (c *Comment) Fill(aliases []string, values []any) error {
	for i, alias := range aliases {
		v := values[i]
		var err error
		switch alias {
		case "id":
			c.ID, err = asInt64(alias, v)
		case "body":
			c.Body, err = asString(alias, v)
		case "postId":
			c.PostID, err = asInt64(alias, v)
		default:
			err = relmap.Validationf("unknown alias %q on entity %q", alias, CommentMeta.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Comment) KeyField(field string) (key.Key, bool) {
	switch field {
	case "id":
		return key.Int64(c.ID), true
	case "postId":
		return key.Int64(c.PostID), true
	}
	return key.Key{}, false
}

func (c *Comment) SetRelation(name string, v *schema.RelationValue) error {
	if name != "post" {
		return &relmap.RelationNotFoundError{Entity: CommentMeta.Name, Relation: name}
	}
	if v.One == nil {
		c.Post = nil
		return nil
	}
	post, ok := v.One.(*Post)
	if !ok {
		return relmap.Validationf("relation %q received a non-Post record", name)
	}
	c.Post = post
	return nil
}

func (c *Comment) SetCount(string, int64) {}
