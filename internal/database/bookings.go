package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_date, b.end_date, b.status,
                        b.created_at, b.updated_at, i.name, u.name`

const bookingJoin = `FROM bookings b
              JOIN items i ON i.id = b.item_id
              JOIN users u ON u.id = b.booker_id`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_date, end_date, status, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		booking.Start.UTC(),
		booking.End.UTC(),
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	return nil
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` ` + bookingJoin + ` WHERE b.id = ?`

	var booking models.Booking
	err := db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID, &booking.ItemID, &booking.BookerID, &booking.Start, &booking.End,
		&booking.Status, &booking.CreatedAt, &booking.UpdatedAt, &booking.ItemName, &booking.BookerName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// UpdateBookingStatus переводит бронирование в новый статус. Предикат по
// текущему статусу отсекает гонку двух одновременных подтверждений: из
// APPROVED выхода нет.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status != ?`
	result, err := db.ExecContext(ctx, query, status, time.Now().UTC(), id, models.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyApproved
	}
	return nil
}

// ListBookingsByBooker возвращает бронирования пользователя, новые по дате
// начала первыми, с фильтром по состоянию.
func (db *DB) ListBookingsByBooker(ctx context.Context, bookerID int64, state string, now time.Time, from, size int) ([]models.Booking, error) {
	filter, filterArgs, err := stateFilter(state, now)
	if err != nil {
		return nil, err
	}

	limit, offset := limitOffset(from, size)
	query := `SELECT ` + bookingColumns + ` ` + bookingJoin + `
              WHERE b.booker_id = ?` + filter + `
              ORDER BY datetime(b.start_date) DESC LIMIT ? OFFSET ?`

	args := append([]interface{}{bookerID}, filterArgs...)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by booker: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListBookingsByOwner возвращает бронирования всех вещей владельца.
func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID int64, state string, now time.Time, from, size int) ([]models.Booking, error) {
	filter, filterArgs, err := stateFilter(state, now)
	if err != nil {
		return nil, err
	}

	limit, offset := limitOffset(from, size)
	query := `SELECT ` + bookingColumns + ` ` + bookingJoin + `
              WHERE i.owner_id = ?` + filter + `
              ORDER BY datetime(b.start_date) DESC LIMIT ? OFFSET ?`

	args := append([]interface{}{ownerID}, filterArgs...)
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by owner: %w", err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetLastBookings возвращает для каждой вещи последнее начавшееся
// подтвержденное бронирование. Одна выборка на весь набор id, без
// обхода вещей по одной.
func (db *DB) GetLastBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error) {
	return db.groupedBookingRefs(ctx, itemIDs,
		`SELECT item_id, id, booker_id, start_date, end_date, MAX(datetime(start_date))
         FROM bookings
         WHERE item_id IN (%s) AND datetime(start_date) <= datetime(?) AND status = ?
         GROUP BY item_id`, now)
}

// GetNextBookings возвращает для каждой вещи ближайшее будущее
// подтвержденное бронирование.
func (db *DB) GetNextBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error) {
	return db.groupedBookingRefs(ctx, itemIDs,
		`SELECT item_id, id, booker_id, start_date, end_date, MIN(datetime(start_date))
         FROM bookings
         WHERE item_id IN (%s) AND datetime(start_date) > datetime(?) AND status = ?
         GROUP BY item_id`, now)
}

func (db *DB) groupedBookingRefs(ctx context.Context, itemIDs []int64, queryTemplate string, now time.Time) (map[int64]models.BookingRef, error) {
	result := make(map[int64]models.BookingRef)
	if len(itemIDs) == 0 {
		return result, nil
	}

	placeholders, args := inPlaceholders(itemIDs)
	query := fmt.Sprintf(queryTemplate, placeholders)
	args = append(args, now.UTC(), models.StatusApproved)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get grouped bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var ref models.BookingRef
		var boundary string // агрегатная колонка нужна только для выбора строки
		if err := rows.Scan(&itemID, &ref.ID, &ref.BookerID, &ref.Start, &ref.End, &boundary); err != nil {
			return nil, fmt.Errorf("failed to scan grouped booking: %w", err)
		}
		result[itemID] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// HasFinishedBooking проверяет, было ли у пользователя завершившееся
// бронирование вещи. Статус не учитывается.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS(
                SELECT 1 FROM bookings
                WHERE booker_id = ? AND item_id = ? AND datetime(end_date) < datetime(?)
              )`

	var exists bool
	err := db.QueryRowContext(ctx, query, bookerID, itemID, now.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}

func stateFilter(state string, now time.Time) (string, []interface{}, error) {
	nowUTC := now.UTC()
	switch state {
	case models.StateAll:
		return "", nil, nil
	case models.StateCurrent:
		return ` AND datetime(b.start_date) <= datetime(?) AND datetime(b.end_date) >= datetime(?)`,
			[]interface{}{nowUTC, nowUTC}, nil
	case models.StatePast:
		return ` AND datetime(b.end_date) < datetime(?)`, []interface{}{nowUTC}, nil
	case models.StateFuture:
		return ` AND datetime(b.start_date) > datetime(?)`, []interface{}{nowUTC}, nil
	case models.StateWaiting, models.StateRejected:
		return ` AND b.status = ?`, []interface{}{state}, nil
	default:
		return "", nil, ErrUnknownState
	}
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID, &booking.ItemID, &booking.BookerID, &booking.Start, &booking.End,
			&booking.Status, &booking.CreatedAt, &booking.UpdatedAt, &booking.ItemName, &booking.BookerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
