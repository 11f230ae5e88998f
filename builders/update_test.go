package builders

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap"
	"relmap/internal/blogdata"
	"relmap/key"
	"relmap/query"
)

func TestUpdateScalarFields(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `users` WHERE `email` = ? LIMIT 1").
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("UPDATE `users` SET `name` = ? WHERE `id` = ?").
		WithArgs("bob", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectUserByID).
		WithArgs(int64(1)).
		WillReturnRows(userRow(1, "a@b.c"))

	rec, err := c.Update("User").
		Where(query.Equals("email", "a@b.c")).
		Set("name", "bob").
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.(*blogdata.User).ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRow(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `users` WHERE `email` = ? LIMIT 1").
		WithArgs("ghost@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := c.Update("User").
		Where(query.Equals("email", "ghost@b.c")).
		Set("name", "bob").
		Exec(context.Background())
	assert.True(t, relmap.IsNotFoundForCondition(err))

	require.NoError(t, mock.ExpectationsWereMet(), "nothing may be written")
}

func TestUpdateRequiresCondition(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Update("User").Set("name", "bob").Exec(context.Background())
	assert.True(t, relmap.IsValidation(err))
}

func TestUpdateSetChildrenDetachesThenAttaches(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `users` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("UPDATE `posts` SET `author_id` = ? WHERE `author_id` = ? AND `id` NOT IN (?,?)").
		WithArgs(nil, int64(1), int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `author_id` = ? WHERE `id` IN (?,?)").
		WithArgs(int64(1), int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(selectUserByID).
		WithArgs(int64(1)).
		WillReturnRows(userRow(1, "a@b.c"))

	_, err := c.Update("User").
		Where(query.Equals("id", int64(1))).
		SetChildren("posts", key.Int64(10), key.Int64(11)).
		Exec(context.Background())
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScalarAndRelationNeverShareStatement(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `users` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("UPDATE `users` SET `name` = ? WHERE `id` = ?").
		WithArgs("bob", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `author_id` = ? WHERE `author_id` = ? AND `id` NOT IN (?)").
		WithArgs(nil, int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE `posts` SET `author_id` = ? WHERE `id` IN (?)").
		WithArgs(int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectUserByID).
		WithArgs(int64(1)).
		WillReturnRows(userRow(1, "a@b.c"))

	_, err := c.Update("User").
		Where(query.Equals("id", int64(1))).
		Set("name", "bob").
		SetChildren("posts", key.Int64(10)).
		Exec(context.Background())
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDisconnectBelongsTo(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `posts` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectExec("UPDATE `posts` SET `author_id` = ? WHERE `id` = ?").
		WithArgs(nil, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectPostByID).
		WithArgs(int64(10)).
		WillReturnRows(postRow(10, "hello", nil))

	rec, err := c.Update("Post").
		Where(query.Equals("id", int64(10))).
		Disconnect("author").
		Exec(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec.(*blogdata.Post).AuthorID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDisconnectRequiresNullableFK(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Update("Comment").
		Where(query.Equals("id", int64(100))).
		Disconnect("post").
		Exec(context.Background())
	assert.True(t, relmap.IsValidation(err))
}

func TestUpdateSetChildrenCannotEmptyNonNullableRelation(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectQuery("SELECT `id` AS `id` FROM `posts` WHERE `id` = ? LIMIT 1").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	_, err := c.Update("Post").
		Where(query.Equals("id", int64(10))).
		SetChildren("comments").
		Exec(context.Background())
	assert.True(t, relmap.IsValidation(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMany(t *testing.T) {
	c, mock := newTestClient(t)

	mock.ExpectExec("UPDATE `posts` SET `published` = ? WHERE `views` > ?").
		WithArgs(true, 100).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := c.UpdateMany("Post").
		Where(query.Filter{Field: "views", Op: query.OpGt, Value: 100}).
		Set("published", true).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateManyEmptySet(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.UpdateMany("Post").Exec(context.Background())
	assert.True(t, relmap.IsValidation(err))
}
