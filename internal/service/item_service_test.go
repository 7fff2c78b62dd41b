package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/memstore"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemService(t *testing.T) (*ItemService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := zerolog.Nop()
	return NewItemService(store, repository.NewMemoryCacheRepository(), nil, &logger), store
}

func seedUser(t *testing.T, store *memstore.Store, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func boolPtr(b bool) *bool { return &b }

func TestItemService_Create(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()

	owner := seedUser(t, store, "Owner", "owner@example.com")

	item := &models.Item{Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, svc.CreateItem(ctx, owner.ID, item))
	assert.Equal(t, owner.ID, item.OwnerID)

	err := svc.CreateItem(ctx, 9999, &models.Item{Name: "Tent", Description: "big", Available: true})
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	err = svc.CreateItem(ctx, owner.ID, &models.Item{Name: "Tent", Description: "big", Available: true, RequestID: 42})
	assert.ErrorIs(t, err, database.ErrRequestNotFound)
}

func TestItemService_UpdateOwnerOnly(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	stranger := seedUser(t, store, "Stranger", "stranger@example.com")

	item := &models.Item{Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, svc.CreateItem(ctx, owner.ID, item))

	_, err := svc.UpdateItem(ctx, stranger.ID, item.ID, models.ItemPatch{Name: strPtr("Stolen")})
	assert.ErrorIs(t, err, database.ErrNotOwner)

	updated, err := svc.UpdateItem(ctx, owner.ID, item.ID, models.ItemPatch{
		Name:      strPtr(""),
		Available: boolPtr(false),
	})
	require.NoError(t, err)
	// Пустая строка не затирает имя, available применяется
	assert.Equal(t, "Drill", updated.Name)
	assert.False(t, updated.Available)
}

func TestItemService_GetItemByID_OwnerSeesBookings(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")

	item := &models.Item{Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, svc.CreateItem(ctx, owner.ID, item))

	past := &models.Booking{ItemID: item.ID, BookerID: booker.ID,
		Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: models.StatusApproved}
	require.NoError(t, store.CreateBooking(ctx, past))
	future := &models.Booking{ItemID: item.ID, BookerID: booker.ID,
		Start: now.Add(24 * time.Hour), End: now.Add(48 * time.Hour), Status: models.StatusApproved}
	require.NoError(t, store.CreateBooking(ctx, future))

	details, err := svc.GetItemByID(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	require.NotNil(t, details.LastBooking)
	require.NotNil(t, details.NextBooking)
	assert.Equal(t, past.ID, details.LastBooking.ID)
	assert.Equal(t, future.ID, details.NextBooking.ID)

	// Не владелец видит карточку без бронирований
	details, err = svc.GetItemByID(ctx, booker.ID, item.ID)
	require.NoError(t, err)
	assert.Nil(t, details.LastBooking)
	assert.Nil(t, details.NextBooking)
	assert.NotNil(t, details.Comments)
}

func TestItemService_GetItemsByOwner(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()

	owner := seedUser(t, store, "Owner", "owner@example.com")

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, svc.CreateItem(ctx, owner.ID, &models.Item{Name: name, Description: name, Available: true}))
	}

	details, err := svc.GetItemsByOwner(ctx, owner.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, details, 3)
	assert.Equal(t, "a", details[0].Name)
	assert.NotNil(t, details[0].Comments)

	empty, err := svc.GetItemsByOwner(ctx, 9999, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestItemService_SearchBlankText(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	require.NoError(t, svc.CreateItem(ctx, owner.ID, &models.Item{Name: "Drill", Description: "cordless", Available: true}))

	// Пустой запрос дает пустую выдачу без похода в хранилище
	items, err := svc.SearchItems(ctx, "   ", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = svc.SearchItems(ctx, "drill", 0, 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestItemService_AddComment(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")

	item := &models.Item{Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, svc.CreateItem(ctx, owner.ID, item))

	// Без завершенной аренды отзывы запрещены
	_, err := svc.AddComment(ctx, booker.ID, item.ID, "great")
	assert.ErrorIs(t, err, database.ErrCommentForbidden)

	finished := &models.Booking{ItemID: item.ID, BookerID: booker.ID,
		Start: now.Add(-48 * time.Hour), End: now.Add(-24 * time.Hour), Status: models.StatusApproved}
	require.NoError(t, store.CreateBooking(ctx, finished))

	comment, err := svc.AddComment(ctx, booker.ID, item.ID, "great drill")
	require.NoError(t, err)
	assert.Equal(t, "Booker", comment.AuthorName)
	assert.NotZero(t, comment.ID)

	_, err = svc.AddComment(ctx, 9999, item.ID, "ghost")
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = svc.AddComment(ctx, booker.ID, 9999, "ghost")
	assert.ErrorIs(t, err, database.ErrItemNotFound)
}

func TestItemService_CacheInvalidation(t *testing.T) {
	svc, store := newItemService(t)
	ctx := context.Background()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	item := &models.Item{Name: "Drill", Description: "cordless", Available: true}
	require.NoError(t, svc.CreateItem(ctx, owner.ID, item))

	// Прогреваем кэш карточки
	_, err := svc.GetItemByID(ctx, owner.ID, item.ID)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, owner.ID, item.ID, models.ItemPatch{Name: strPtr("Hammer drill")})
	require.NoError(t, err)

	// После обновления читается свежее значение, а не кэшированное
	details, err := svc.GetItemByID(ctx, owner.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hammer drill", details.Name)
}
