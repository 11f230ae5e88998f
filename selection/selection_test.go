package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap"
	"relmap/internal/blogdata"
	"relmap/query"
	"relmap/selection"
)

func TestRequiredFieldsAddsPrimaryKey(t *testing.T) {
	fields, err := selection.RequiredFields(blogdata.PostMeta, []string{"title"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, fields)
}

func TestRequiredFieldsAddsForeignKeyForBelongsToInclude(t *testing.T) {
	fields, err := selection.RequiredFields(blogdata.PostMeta, []string{"title"}, []query.RelationFilter{
		{Relation: "author"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "authorId"}, fields)
}

func TestRequiredFieldsHasManyNeedsOnlyPrimaryKey(t *testing.T) {
	fields, err := selection.RequiredFields(blogdata.PostMeta, []string{"title"}, []query.RelationFilter{
		{Relation: "comments"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, fields)
}

func TestRequiredFieldsDeterministicOrder(t *testing.T) {
	// Requested out of declaration order; the result follows the column
	// declaration order regardless.
	fields, err := selection.RequiredFields(blogdata.PostMeta, []string{"views", "title"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title", "views"}, fields)
}

func TestRequiredFieldsDeduplicates(t *testing.T) {
	fields, err := selection.RequiredFields(blogdata.PostMeta, []string{"id", "authorId"}, []query.RelationFilter{
		{Relation: "author"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "authorId"}, fields)
}

func TestRequiredFieldsUnknownAlias(t *testing.T) {
	_, err := selection.RequiredFields(blogdata.PostMeta, []string{"slug"}, nil)
	assert.True(t, relmap.IsValidation(err))
}

func TestRequiredFieldsUnknownRelation(t *testing.T) {
	_, err := selection.RequiredFields(blogdata.PostMeta, []string{"title"}, []query.RelationFilter{
		{Relation: "tags"},
	})
	assert.True(t, relmap.IsRelationNotFound(err))
}

func TestFieldsForFilter(t *testing.T) {
	fields, err := selection.FieldsForFilter(blogdata.PostMeta, &query.RelationFilter{Relation: "posts"})
	require.NoError(t, err)
	assert.Nil(t, fields, "no selection means full row")

	fields, err = selection.FieldsForFilter(blogdata.PostMeta, &query.RelationFilter{
		Relation:      "posts",
		SelectAliases: []string{"title"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, fields)
}
