package builders

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap"
	"relmap/internal/blogdata"
	"relmap/query"
)

func TestFindManyFiltersOrderPagination(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `published` = ? ORDER BY `views` DESC LIMIT 2").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}).
			AddRow(10, "top", 1, 90, nil, nil).
			AddRow(11, "next", 1, 50, nil, nil))

	records, err := c.FindMany("Post").
		Where(query.Equals("published", true)).
		OrderBy("views", query.Desc).
		Take(2).
		Exec(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "top", records[0].(*blogdata.Post).Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyWithInclude(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id`, `email`, `name`, `created_at` FROM `users`").
		WillReturnRows(userRow(1, "a@b.c"))
	mock.ExpectQuery("SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `author_id` = ?").
		WithArgs(int64(1)).
		WillReturnRows(postRow(10, "hello", 1))

	records, err := c.FindMany("User").
		With(query.Include("posts").Build()).
		Exec(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	user := records[0].(*blogdata.User)
	require.Len(t, user.Posts, 1)
	assert.Equal(t, "hello", user.Posts[0].Title)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManySelectYieldsPartialsWithIncludeKeys(t *testing.T) {
	c, mock := newTestClient(t)

	// The projection keeps the primary key and the author foreign key so
	// the include can still anchor.
	mock.ExpectQuery("SELECT `id` AS `id`, `title` AS `title`, `author_id` AS `authorId` FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "authorId"}).AddRow(10, "hello", 1))
	mock.ExpectQuery(selectUserByID).
		WithArgs(int64(1)).
		WillReturnRows(userRow(1, "a@b.c"))

	records, err := c.FindMany("Post").
		Select("title").
		With(query.Include("author").Build()).
		Exec(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	partial, ok := records[0].(*blogdata.PostPartial)
	require.True(t, ok)
	require.NotNil(t, partial.Title)
	assert.Equal(t, "hello", *partial.Title)
	require.NotNil(t, partial.Author)
	assert.Equal(t, "a@b.c", partial.Author.(*blogdata.User).Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUniqueFirst(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id`, `email`, `name`, `created_at` FROM `users` WHERE `email` = ? LIMIT 1").
		WithArgs("a@b.c").
		WillReturnRows(userRow(1, "a@b.c"))

	rec, err := c.FindUnique("User", query.Equals("email", "a@b.c")).First(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.(*blogdata.User).ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirstAbsentIsNil(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id`, `email`, `name`, `created_at` FROM `users` WHERE `email` = ? LIMIT 1").
		WithArgs("ghost@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "created_at"}))

	rec, err := c.FindFirst("User", query.Equals("email", "ghost@b.c")).First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindManyUnknownEntity(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.FindMany("Ghost").Exec(context.Background())
	assert.True(t, relmap.IsEntityNotRegistered(err))
}

func TestCount(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM `posts` WHERE `published` = ?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := c.Count("Post").
		Where(query.Equals("published", true)).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	require.NoError(t, mock.ExpectationsWereMet())
}
