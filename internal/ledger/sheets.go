// Package ledger содержит приемники реестра бронирований: таблица
// Google Sheets и локальный Excel-файл.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"shareit/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const bookingsSheet = "Bookings"

var errRowNotFound = errors.New("booking row not found")

// SheetsLedger пишет реестр бронирований в Google Sheets через
// сервисный аккаунт.
type SheetsLedger struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

func NewSheetsLedger(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsLedger, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	// Создаем JWT конфигурацию
	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	ledger := &SheetsLedger{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ledger.WarmUpCache(warmCtx)
	}()

	return ledger, nil
}

// TestConnection проверяет доступность таблицы
func (s *SheetsLedger) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

func bookingRowValues(booking *models.Booking) []interface{} {
	return []interface{}{
		booking.ID,
		booking.ItemID,
		booking.ItemName,
		booking.BookerID,
		booking.BookerName,
		booking.Start.Format("2006-01-02 15:04:05"),
		booking.End.Format("2006-01-02 15:04:05"),
		booking.Status,
		booking.CreatedAt.Format("2006-01-02 15:04:05"),
		booking.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// AppendBooking добавляет строку бронирования в конец листа
func (s *SheetsLedger) AppendBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, bookingsSheet+"!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpdateBookingStatus обновляет статус и время изменения в строке бронирования
func (s *SheetsLedger) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	rowIdx, err := s.findBookingRow(ctx, bookingID)
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	statusRange := fmt.Sprintf("%s!H%d:H%d", bookingsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("%s!J%d:J%d", bookingsSheet, rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// ReplaceBookings полностью перезаписывает лист реестра
func (s *SheetsLedger) ReplaceBookings(ctx context.Context, bookings []*models.Booking) error {
	values := [][]interface{}{
		{"ID", "Item ID", "Item", "Booker ID", "Booker", "Start", "End", "Status", "Created At", "Updated At"},
	}
	for _, booking := range bookings {
		values = append(values, bookingRowValues(booking))
	}

	rangeData := fmt.Sprintf("%s!A1:J%d", bookingsSheet, len(values))
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
	for i, booking := range bookings {
		s.rowCache[booking.ID] = i + 2 // строка 1 занята заголовком
	}
	return nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsLedger) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// findBookingRow locates the 1-based row index for booking_id in column A.
func (s *SheetsLedger) findBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if bookingID == 0 {
		return 0, fmt.Errorf("booking id is required")
	}

	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			if int64(v) == bookingID {
				rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
				s.setCachedRow(bookingID, rowIdx)
				return rowIdx, nil
			}
		case string:
			if v == fmt.Sprintf("%d", bookingID) {
				rowIdx := i + 1
				s.setCachedRow(bookingID, rowIdx)
				return rowIdx, nil
			}
		}
	}

	return 0, errRowNotFound
}

func (s *SheetsLedger) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsLedger) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}
