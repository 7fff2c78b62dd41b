package database

import (
	"context"
	"testing"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCRUD(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	item := createTestItem(t, db, owner.ID, "Drill", true)
	assert.NotZero(t, item.ID)

	found, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", found.Name)
	assert.True(t, found.Available)
	assert.Equal(t, owner.ID, found.OwnerID)
	assert.Zero(t, found.RequestID)

	found.Name = "Cordless drill"
	found.Available = false
	require.NoError(t, db.UpdateItem(ctx, found))

	found, err = db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cordless drill", found.Name)
	assert.False(t, found.Available)

	_, err = db.GetItemByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCreateItem_WithRequest(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	requestor := createTestUser(t, db, "Requestor", "requestor@example.com")

	request := &models.ItemRequest{Description: "need a drill", RequestorID: requestor.ID}
	require.NoError(t, db.CreateRequest(ctx, request))

	item := &models.Item{
		Name:        "Drill",
		Description: "powerful drill",
		Available:   true,
		OwnerID:     owner.ID,
		RequestID:   request.ID,
	}
	require.NoError(t, db.CreateItem(ctx, item))

	found, err := db.GetItemByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.RequestID)

	items, err := db.GetItemsByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)
}

func TestSearchItems(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")

	drill := createTestItem(t, db, owner.ID, "Cordless DRILL", true)
	createTestItem(t, db, owner.ID, "Tent", true)

	// Недоступные вещи в выдачу не попадают
	broken := &models.Item{Name: "Broken drill", Description: "does not work", Available: false, OwnerID: owner.ID}
	require.NoError(t, db.CreateItem(ctx, broken))

	found, err := db.SearchItems(ctx, "drill", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, drill.ID, found[0].ID)

	// Поиск по описанию
	found, err = db.SearchItems(ctx, "DESCRIPTION", 0, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = db.SearchItems(ctx, "nosuchthing", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestGetItemsByOwner_Paging(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	other := createTestUser(t, db, "Other", "other@example.com")

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		createTestItem(t, db, owner.ID, name, true)
	}
	createTestItem(t, db, other.ID, "foreign", true)

	items, err := db.GetItemsByOwner(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 5)

	// from/size работают постранично: from=3 size=2 означает вторую страницу
	items, err = db.GetItemsByOwner(ctx, owner.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Name)
	assert.Equal(t, "d", items[1].Name)
}

func TestGetItemsByRequestIDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	owner := createTestUser(t, db, "Owner", "owner@example.com")
	requestor := createTestUser(t, db, "Requestor", "requestor@example.com")

	first := &models.ItemRequest{Description: "need a drill", RequestorID: requestor.ID}
	require.NoError(t, db.CreateRequest(ctx, first))
	second := &models.ItemRequest{Description: "need a tent", RequestorID: requestor.ID}
	require.NoError(t, db.CreateRequest(ctx, second))

	for i, reqID := range []int64{first.ID, first.ID, second.ID} {
		item := &models.Item{
			Name:        string(rune('a' + i)),
			Description: "item",
			Available:   true,
			OwnerID:     owner.ID,
			RequestID:   reqID,
		}
		require.NoError(t, db.CreateItem(ctx, item))
	}

	grouped, err := db.GetItemsByRequestIDs(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	assert.Len(t, grouped[first.ID], 2)
	assert.Len(t, grouped[second.ID], 1)

	grouped, err = db.GetItemsByRequestIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
}
