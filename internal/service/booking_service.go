package service

import (
	"context"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	store        domain.Store
	eventBus     domain.EventPublisher
	ledgerWorker domain.LedgerWorker
	logger       *zerolog.Logger
}

func NewBookingService(store domain.Store, eventBus domain.EventPublisher, ledgerWorker domain.LedgerWorker, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		store:        store,
		eventBus:     eventBus,
		ledgerWorker: ledgerWorker,
		logger:       logger,
	}
}

// CreateBooking регистрирует заявку на аренду со статусом WAITING.
// Владелец не может бронировать собственную вещь: для него заявка
// выглядит как отсутствующая.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error) {
	exists, err := s.store.UserExists(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	item, err := s.store.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, database.ErrItemUnavailable
	}
	if item.OwnerID == bookerID {
		return nil, database.ErrBookingAccess
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(models.StatusWaiting)
	s.publishEvent(events.EventBookingCreated, booking)
	s.enqueueLedger(ctx, "append", booking)

	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", itemID).Int64("booker_id", bookerID).Msg("Booking created")
	return booking, nil
}

// ApproveBooking подтверждает или отклоняет заявку. Доступно только
// владельцу вещи; для остальных заявка выглядит как отсутствующая.
func (s *BookingService) ApproveBooking(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.Booking, error) {
	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	booking, err := s.store.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, database.ErrBookingAccess
	}
	if booking.Status == models.StatusApproved {
		return nil, database.ErrAlreadyApproved
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	metrics.IncBookingTransition(status)
	s.publishEvent(eventType, booking)
	s.enqueueLedger(ctx, "update_status", booking)

	s.logger.Info().Int64("booking_id", bookingID).Str("status", status).Msg("Booking status changed")
	return booking, nil
}

// GetBookingByID возвращает бронирование его автору или владельцу вещи.
func (s *BookingService) GetBookingByID(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	booking, err := s.store.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != userID && item.OwnerID != userID {
		return nil, database.ErrBookingAccess
	}

	return booking, nil
}

func (s *BookingService) ListBookingsByBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]models.Booking, error) {
	exists, err := s.store.UserExists(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	bookings, err := s.store.ListBookingsByBooker(ctx, bookerID, state, time.Now().UTC(), from, size)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) ListBookingsByOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]models.Booking, error) {
	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrUserNotFound
	}

	bookings, err := s.store.ListBookingsByOwner(ctx, ownerID, state, time.Now().UTC(), from, size)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:  booking.ID,
		ItemID:     booking.ItemID,
		ItemName:   booking.ItemName,
		BookerID:   booking.BookerID,
		BookerName: booking.BookerName,
		Status:     booking.Status,
		Start:      booking.Start,
		End:        booking.End,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish booking event")
	}
}

func (s *BookingService) enqueueLedger(ctx context.Context, taskType string, booking *models.Booking) {
	if s.ledgerWorker == nil {
		return
	}
	if err := s.ledgerWorker.EnqueueTask(ctx, taskType, booking.ID, booking); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("Failed to enqueue ledger task")
	}
}
