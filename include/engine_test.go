package include

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap"
	"relmap/dbexec"
	"relmap/internal/blogdata"
	"relmap/query"
	"relmap/registry"
	"relmap/schema"
)

func newTestEngine(t *testing.T) (*Engine, *dbexec.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := registry.New()
	require.NoError(t, blogdata.Register(reg))
	return NewEngine(reg, nil), dbexec.NewDB(db), mock
}

func TestApplyHasManyPerParentPagination(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	// Each parent gets its own scoped fetch, so take/skip bound the
	// children per parent, not globally.
	u1 := &blogdata.User{ID: 1}
	u2 := &blogdata.User{ID: 2}

	postSQL := "SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `author_id` = ? LIMIT 1 OFFSET 1"
	mock.ExpectQuery(postSQL).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}).
			AddRow(12, "second", 1, 3, 1, nil))
	mock.ExpectQuery(postSQL).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}))

	take, skip := int64(1), int64(1)
	err := engine.Apply(context.Background(), db, blogdata.UserMeta,
		[]schema.Record{u1, u2},
		[]query.RelationFilter{{Relation: "posts", Take: &take, Skip: &skip}})
	require.NoError(t, err)

	require.Len(t, u1.Posts, 1)
	assert.Equal(t, int64(12), u1.Posts[0].ID)
	assert.NotNil(t, u2.Posts, "empty result still sets the slot")
	assert.Len(t, u2.Posts, 0)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyNestedIncludes(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	u := &blogdata.User{ID: 1}

	mock.ExpectQuery("SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `author_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}).
			AddRow(10, "first", 1, 5, 1, nil).
			AddRow(11, "second", 0, 0, 1, nil))

	commentSQL := "SELECT `id`, `body`, `post_id` FROM `comments` WHERE `post_id` = ?"
	mock.ExpectQuery(commentSQL).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "post_id"}).
			AddRow(100, "nice", 10))
	mock.ExpectQuery(commentSQL).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "post_id"}))

	err := engine.Apply(context.Background(), db, blogdata.UserMeta,
		[]schema.Record{u},
		[]query.RelationFilter{{
			Relation: "posts",
			Nested:   []query.RelationFilter{{Relation: "comments"}},
		}})
	require.NoError(t, err)

	require.Len(t, u.Posts, 2)
	require.Len(t, u.Posts[0].Comments, 1)
	assert.Equal(t, "nice", u.Posts[0].Comments[0].Body)
	assert.Len(t, u.Posts[1].Comments, 0)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyBelongsTo(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	authorID := int64(1)
	withAuthor := &blogdata.Post{ID: 10, AuthorID: &authorID}
	orphan := &blogdata.Post{ID: 11}

	// Only the post with a set foreign key triggers a fetch; the orphan's
	// slot stays untouched.
	mock.ExpectQuery("SELECT `id`, `email`, `name`, `created_at` FROM `users` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "created_at"}).
			AddRow(1, "a@b.c", nil, []byte("2026-01-02 10:00:00")))

	err := engine.Apply(context.Background(), db, blogdata.PostMeta,
		[]schema.Record{withAuthor, orphan},
		[]query.RelationFilter{{Relation: "author"}})
	require.NoError(t, err)

	require.NotNil(t, withAuthor.Author)
	assert.Equal(t, "a@b.c", withAuthor.Author.Email)
	assert.Nil(t, orphan.Author)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCountOnly(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	p := &blogdata.Post{ID: 10}
	mock.ExpectQuery("SELECT COUNT(*) FROM `comments` WHERE `post_id` = ?").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	err := engine.Apply(context.Background(), db, blogdata.PostMeta,
		[]schema.Record{p},
		[]query.RelationFilter{{Relation: "comments", IncludeCount: true, CountOnly: true}})
	require.NoError(t, err)

	assert.Equal(t, int64(4), p.Counts["comments"])
	assert.Nil(t, p.Comments, "count-only must not fetch rows")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCountWithoutNestedSkipsRowFetch(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	// A count request with no nested includes replaces the row fetch; only
	// the COUNT query may hit the database and the slot stays unset.
	p := &blogdata.Post{ID: 10}
	mock.ExpectQuery("SELECT COUNT(*) FROM `comments` WHERE `post_id` = ?").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	err := engine.Apply(context.Background(), db, blogdata.PostMeta,
		[]schema.Record{p},
		[]query.RelationFilter{{Relation: "comments", IncludeCount: true}})
	require.NoError(t, err)

	assert.Equal(t, int64(4), p.Counts["comments"])
	assert.Nil(t, p.Comments)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCountAlongsideNestedRows(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	// With deeper includes below the counted relation, rows are fetched so
	// traversal can continue, and the count is recorded alongside them.
	u := &blogdata.User{ID: 1}
	mock.ExpectQuery("SELECT COUNT(*) FROM `posts` WHERE `author_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `author_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}).
			AddRow(10, "first", 1, 5, 1, nil).
			AddRow(11, "second", 0, 0, 1, nil))
	commentSQL := "SELECT `id`, `body`, `post_id` FROM `comments` WHERE `post_id` = ?"
	mock.ExpectQuery(commentSQL).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "post_id"}).
			AddRow(100, "nice", 10))
	mock.ExpectQuery(commentSQL).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "post_id"}))

	err := engine.Apply(context.Background(), db, blogdata.UserMeta,
		[]schema.Record{u},
		[]query.RelationFilter{{
			Relation:     "posts",
			IncludeCount: true,
			Nested:       []query.RelationFilter{{Relation: "comments"}},
		}})
	require.NoError(t, err)

	assert.Equal(t, int64(2), u.Counts["posts"])
	require.Len(t, u.Posts, 2)
	require.Len(t, u.Posts[0].Comments, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyInvalidIncludePathFailsBeforeFetching(t *testing.T) {
	engine, db, mock := newTestEngine(t)

	u := &blogdata.User{ID: 1}
	err := engine.Apply(context.Background(), db, blogdata.UserMeta,
		[]schema.Record{u},
		[]query.RelationFilter{{
			Relation: "posts",
			Nested:   []query.RelationFilter{{Relation: "tags"}},
		}})
	assert.True(t, relmap.IsInvalidIncludePath(err))
	require.NoError(t, mock.ExpectationsWereMet(), "nothing may be fetched")
}

func TestApplyUnknownRelation(t *testing.T) {
	engine, db, _ := newTestEngine(t)

	u := &blogdata.User{ID: 1}
	err := engine.Apply(context.Background(), db, blogdata.UserMeta,
		[]schema.Record{u},
		[]query.RelationFilter{{Relation: "followers"}})
	assert.True(t, relmap.IsRelationNotFound(err))
}
