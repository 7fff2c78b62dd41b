package database

import (
	"context"
	"testing"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	author := createTestUser(t, db, "Author", "author@example.com")
	drill := createTestItem(t, db, owner.ID, "Drill", true)
	tent := createTestItem(t, db, owner.ID, "Tent", true)

	for _, text := range []string{"great drill", "battery died fast"} {
		comment := &models.Comment{
			Text:       text,
			ItemID:     drill.ID,
			AuthorID:   author.ID,
			AuthorName: author.Name,
		}
		require.NoError(t, db.CreateComment(ctx, comment))
		assert.NotZero(t, comment.ID)
	}

	comments, err := db.GetCommentsByItem(ctx, drill.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "great drill", comments[0].Text)
	assert.Equal(t, "Author", comments[0].AuthorName)

	comments, err = db.GetCommentsByItem(ctx, tent.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	grouped, err := db.GetCommentsByItems(ctx, []int64{drill.ID, tent.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[drill.ID], 2)
	assert.Empty(t, grouped[tent.ID])

	grouped, err = db.GetCommentsByItems(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
}
