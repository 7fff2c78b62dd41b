package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// Store описывает хранилище данных. Реализации: database.DB (SQLite)
// и memstore.Store (в памяти, для тестов и лёгких инсталляций).
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	UserExists(ctx context.Context, id int64) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]models.Item, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]models.Item, error)
	GetItemsByRequestID(ctx context.Context, requestID int64) ([]models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error)
	ItemExists(ctx context.Context, id int64) (bool, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	ListBookingsByBooker(ctx context.Context, bookerID int64, state string, now time.Time, from, size int) ([]models.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID int64, state string, now time.Time, from, size int) ([]models.Booking, error)
	GetLastBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error)
	GetNextBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error)
	GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]models.Comment, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error)
	GetRequestsByOthers(ctx context.Context, userID int64, from, size int) ([]models.ItemRequest, error)
}

// LedgerQueue хранит очередь задач выгрузки в реестр.
type LedgerQueue interface {
	CreateLedgerTask(ctx context.Context, task *models.LedgerTask) error
	GetPendingLedgerTasks(ctx context.Context, limit int) ([]models.LedgerTask, error)
	UpdateLedgerTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
	GetFailedLedgerTasks(ctx context.Context) ([]models.LedgerTask, error)
}

type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// LedgerSink пишет изменения бронирований во внешний реестр
// (Google Sheets или локальный Excel-файл).
type LedgerSink interface {
	AppendBooking(ctx context.Context, booking *models.Booking) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	ReplaceBookings(ctx context.Context, bookings []*models.Booking) error
}

type LedgerWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error
}
