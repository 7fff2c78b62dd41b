package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

// ExcelLedger ведет реестр бронирований в локальном xlsx-файле.
// Файл полностью перезаписывается при каждом изменении: объемы
// реестра небольшие, а снапшот проще инкрементальных правок.
type ExcelLedger struct {
	path string

	mu       sync.Mutex
	bookings map[int64]*models.Booking
}

func NewExcelLedger(path string) (*ExcelLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("excel ledger path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating ledger directory: %v", err)
	}

	return &ExcelLedger{
		path:     path,
		bookings: make(map[int64]*models.Booking),
	}, nil
}

func (l *ExcelLedger) AppendBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cp := *booking
	l.bookings[booking.ID] = &cp
	return l.writeFile()
}

func (l *ExcelLedger) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	booking, ok := l.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %d is not in the ledger", bookingID)
	}
	booking.Status = status
	booking.UpdatedAt = time.Now()
	return l.writeFile()
}

func (l *ExcelLedger) ReplaceBookings(ctx context.Context, bookings []*models.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bookings = make(map[int64]*models.Booking, len(bookings))
	for _, booking := range bookings {
		cp := *booking
		l.bookings[booking.ID] = &cp
	}
	return l.writeFile()
}

func (l *ExcelLedger) writeFile() error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Item ID", "Item", "Booker ID", "Booker", "Start", "End", "Status", "Created At", "Updated At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", lastHeader, style)

	ids := make([]int64, 0, len(l.bookings))
	for id := range l.bookings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for row, id := range ids {
		booking := l.bookings[id]
		values := []interface{}{
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
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "J", 20)
	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(l.path); err != nil {
		return fmt.Errorf("error saving ledger file: %v", err)
	}
	return nil
}
