package builders

import (
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"relmap/dbexec"
	"relmap/internal/blogdata"
	"relmap/registry"
)

func newTestClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := registry.New()
	require.NoError(t, blogdata.Register(reg))
	return NewClient(dbexec.NewDB(db), reg), mock
}

func userRow(id int64, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "name", "created_at"}).
		AddRow(id, email, nil, []byte("2026-01-02 10:00:00"))
}

func postRow(id int64, title string, authorID any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "published", "views", "author_id", "metadata"}).
		AddRow(id, title, 0, 0, authorID, nil)
}

func commentRow(id int64, body string, postID int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "body", "post_id"}).AddRow(id, body, postID)
}

const (
	selectUserByID    = "SELECT `id`, `email`, `name`, `created_at` FROM `users` WHERE `id` = ? LIMIT 1"
	selectPostByID    = "SELECT `id`, `title`, `published`, `views`, `author_id`, `metadata` FROM `posts` WHERE `id` = ? LIMIT 1"
	selectCommentByID = "SELECT `id`, `body`, `post_id` FROM `comments` WHERE `id` = ? LIMIT 1"
)
