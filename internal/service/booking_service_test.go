package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/memstore"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingService(t *testing.T) (*BookingService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := zerolog.Nop()
	return NewBookingService(store, events.NewEventBus(), nil, &logger), store
}

func seedItem(t *testing.T, store *memstore.Store, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Description: name, Available: available, OwnerID: ownerID}
	require.NoError(t, store.CreateItem(context.Background(), item))
	return item
}

func TestBookingService_Create(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)

	booking, err := svc.CreateBooking(ctx, booker.ID, item.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.NotZero(t, booking.ID)
}

func TestBookingService_CreateRejections(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	start, end := now.Add(24*time.Hour), now.Add(48*time.Hour)

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)
	unavailable := seedItem(t, store, owner.ID, "Broken", false)

	_, err := svc.CreateBooking(ctx, 9999, item.ID, start, end)
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = svc.CreateBooking(ctx, booker.ID, 9999, start, end)
	assert.ErrorIs(t, err, database.ErrItemNotFound)

	_, err = svc.CreateBooking(ctx, booker.ID, unavailable.ID, start, end)
	assert.ErrorIs(t, err, database.ErrItemUnavailable)

	// Владелец не бронирует свою вещь: для него заявки не существует
	_, err = svc.CreateBooking(ctx, owner.ID, item.ID, start, end)
	assert.ErrorIs(t, err, database.ErrBookingAccess)
}

func TestBookingService_Approve(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)

	booking, err := svc.CreateBooking(ctx, booker.ID, item.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	// Чужой пользователь заявку не видит
	_, err = svc.ApproveBooking(ctx, booker.ID, booking.ID, true)
	assert.ErrorIs(t, err, database.ErrBookingAccess)

	approved, err := svc.ApproveBooking(ctx, owner.ID, booking.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Подтвержденную заявку второй раз не трогаем
	_, err = svc.ApproveBooking(ctx, owner.ID, booking.ID, false)
	assert.ErrorIs(t, err, database.ErrAlreadyApproved)
}

func TestBookingService_RejectedCanBeApproved(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)

	booking, err := svc.CreateBooking(ctx, booker.ID, item.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	rejected, err := svc.ApproveBooking(ctx, owner.ID, booking.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	// Отказ не финален: владелец может передумать
	approved, err := svc.ApproveBooking(ctx, owner.ID, booking.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
}

func TestBookingService_GetByID_Visibility(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	stranger := seedUser(t, store, "Stranger", "stranger@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)

	booking, err := svc.CreateBooking(ctx, booker.ID, item.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	for _, userID := range []int64{booker.ID, owner.ID} {
		found, err := svc.GetBookingByID(ctx, userID, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.ID, found.ID)
	}

	_, err = svc.GetBookingByID(ctx, stranger.ID, booking.ID)
	assert.ErrorIs(t, err, database.ErrBookingAccess)
}

func TestBookingService_Listings(t *testing.T) {
	svc, store := newBookingService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := seedUser(t, store, "Owner", "owner@example.com")
	booker := seedUser(t, store, "Booker", "booker@example.com")
	item := seedItem(t, store, owner.ID, "Drill", true)

	_, err := svc.CreateBooking(ctx, booker.ID, item.ID, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)

	byBooker, err := svc.ListBookingsByBooker(ctx, booker.ID, models.StateAll, 0, 10)
	require.NoError(t, err)
	assert.Len(t, byBooker, 1)

	byOwner, err := svc.ListBookingsByOwner(ctx, owner.ID, models.StateAll, 0, 10)
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)

	// У арендатора без вещей выдача пустая, но не nil
	empty, err := svc.ListBookingsByOwner(ctx, booker.ID, models.StateAll, 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.ListBookingsByBooker(ctx, 9999, models.StateAll, 0, 10)
	assert.ErrorIs(t, err, database.ErrUserNotFound)

	_, err = svc.ListBookingsByBooker(ctx, booker.ID, "UNSUPPORTED_STATUS", 0, 10)
	assert.ErrorIs(t, err, database.ErrUnknownState)
}
