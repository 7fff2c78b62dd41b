// Package memstore реализует хранилище в памяти. Используется в тестах
// и при database.driver = "memory"; семантика совпадает с SQLite-слоем,
// включая тексты ошибок и правила пагинации.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shareit/internal/database"
	"shareit/internal/models"
)

type Store struct {
	mu sync.RWMutex

	users    map[int64]*models.User
	items    map[int64]*models.Item
	bookings map[int64]*models.Booking
	comments map[int64]*models.Comment
	requests map[int64]*models.ItemRequest
	tasks    map[int64]*models.LedgerTask

	nextUserID    int64
	nextItemID    int64
	nextBookingID int64
	nextCommentID int64
	nextRequestID int64
	nextTaskID    int64
}

func New() *Store {
	return &Store{
		users:    make(map[int64]*models.User),
		items:    make(map[int64]*models.Item),
		bookings: make(map[int64]*models.Booking),
		comments: make(map[int64]*models.Comment),
		requests: make(map[int64]*models.ItemRequest),
		tasks:    make(map[int64]*models.LedgerTask),
	}
}

// pageWindow повторяет арифметику страниц SQL-слоя: номер страницы
// вычисляется целочисленным делением from/size.
func pageWindow(n, from, size int) (int, int) {
	if size <= 0 {
		size = models.DefaultPageSize
	}
	if from < 0 {
		from = 0
	}
	page := from / size
	offset := page * size
	if offset > n {
		offset = n
	}
	end := offset + size
	if end > n {
		end = n
	}
	return offset, end
}

// ---- users ----

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return database.ErrEmailExists
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return database.ErrUserNotFound
	}
	for id, u := range s.users {
		if id != user.ID && u.Email == user.Email {
			return database.ErrEmailExists
		}
	}

	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Удаление идемпотентно, отсутствие пользователя не ошибка
	delete(s.users, id)
	return nil
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.users[id]
	return ok, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ---- items ----

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextItemID++
	item.ID = s.nextItemID
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, database.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return database.ErrItemNotFound
	}
	item.CreatedAt = stored.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Store) GetItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	lo, hi := pageWindow(len(items), from, size)
	return items[lo:hi], nil
}

func (s *Store) SearchItems(ctx context.Context, text string, from, size int) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(text)
	var items []models.Item
	for _, it := range s.items {
		if !it.Available {
			continue
		}
		if strings.Contains(strings.ToLower(it.Name), needle) ||
			strings.Contains(strings.ToLower(it.Description), needle) {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	lo, hi := pageWindow(len(items), from, size)
	return items[lo:hi], nil
}

func (s *Store) GetItemsByRequestID(ctx context.Context, requestID int64) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	for _, it := range s.items {
		if it.RequestID == requestID {
			items = append(items, *it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *Store) GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(requestIDs))
	for _, id := range requestIDs {
		wanted[id] = true
	}

	grouped := make(map[int64][]models.Item)
	for _, it := range s.items {
		if it.RequestID != 0 && wanted[it.RequestID] {
			grouped[it.RequestID] = append(grouped[it.RequestID], *it)
		}
	}
	for _, items := range grouped {
		sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	}
	return grouped, nil
}

func (s *Store) ItemExists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[id]
	return ok, nil
}

// ---- bookings ----

// fillNames подставляет имена вещи и арендатора, как это делает JOIN в SQL-слое.
func (s *Store) fillNames(b *models.Booking) {
	if it, ok := s.items[b.ItemID]; ok {
		b.ItemName = it.Name
	}
	if u, ok := s.users[b.BookerID]; ok {
		b.BookerName = u.Name
	}
}

func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookingID++
	booking.ID = s.nextBookingID
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	cp := *booking
	s.bookings[booking.ID] = &cp
	s.fillNames(booking)
	return nil
}

func (s *Store) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, database.ErrBookingNotFound
	}
	cp := *b
	s.fillNames(&cp)
	return &cp, nil
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return database.ErrBookingNotFound
	}
	if b.Status == models.StatusApproved {
		return database.ErrAlreadyApproved
	}
	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func matchesState(b *models.Booking, state string, now time.Time) bool {
	switch state {
	case models.StateAll:
		return true
	case models.StateCurrent:
		return !b.Start.After(now) && !b.End.Before(now)
	case models.StatePast:
		return b.End.Before(now)
	case models.StateFuture:
		return b.Start.After(now)
	case models.StateWaiting:
		return b.Status == models.StatusWaiting
	case models.StateRejected:
		return b.Status == models.StatusRejected
	default:
		return false
	}
}

func (s *Store) listBookings(pick func(*models.Booking) bool, state string, now time.Time, from, size int) ([]models.Booking, error) {
	if !models.KnownState(state) {
		return nil, database.ErrUnknownState
	}

	var bookings []models.Booking
	for _, b := range s.bookings {
		if pick(b) && matchesState(b, state, now) {
			cp := *b
			s.fillNames(&cp)
			bookings = append(bookings, cp)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].Start.After(bookings[j].Start) })
	lo, hi := pageWindow(len(bookings), from, size)
	return bookings[lo:hi], nil
}

func (s *Store) ListBookingsByBooker(ctx context.Context, bookerID int64, state string, now time.Time, from, size int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listBookings(func(b *models.Booking) bool { return b.BookerID == bookerID }, state, now, from, size)
}

func (s *Store) ListBookingsByOwner(ctx context.Context, ownerID int64, state string, now time.Time, from, size int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listBookings(func(b *models.Booking) bool {
		it, ok := s.items[b.ItemID]
		return ok && it.OwnerID == ownerID
	}, state, now, from, size)
}

func (s *Store) GetLastBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	best := make(map[int64]*models.Booking)
	for _, b := range s.bookings {
		if b.Status != models.StatusApproved || !wanted[b.ItemID] || b.Start.After(now) {
			continue
		}
		cur := best[b.ItemID]
		if cur == nil || b.Start.After(cur.Start) {
			best[b.ItemID] = b
		}
	}

	refs := make(map[int64]models.BookingRef, len(best))
	for itemID, b := range best {
		refs[itemID] = models.BookingRef{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
	}
	return refs, nil
}

func (s *Store) GetNextBookings(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]models.BookingRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	best := make(map[int64]*models.Booking)
	for _, b := range s.bookings {
		if b.Status != models.StatusApproved || !wanted[b.ItemID] || !b.Start.After(now) {
			continue
		}
		cur := best[b.ItemID]
		if cur == nil || b.Start.Before(cur.Start) {
			best[b.ItemID] = b
		}
	}

	refs := make(map[int64]models.BookingRef, len(best))
	for itemID, b := range best {
		refs[itemID] = models.BookingRef{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
	}
	return refs, nil
}

func (s *Store) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.BookerID == bookerID && b.ItemID == itemID && b.End.Before(now) {
			return true, nil
		}
	}
	return false, nil
}

// ---- comments ----

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCommentID++
	comment.ID = s.nextCommentID
	comment.CreatedAt = time.Now().UTC()

	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *Store) GetCommentsByItem(ctx context.Context, itemID int64) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []models.Comment
	for _, c := range s.comments {
		if c.ItemID == itemID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}

func (s *Store) GetCommentsByItems(ctx context.Context, itemIDs []int64) (map[int64][]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}

	grouped := make(map[int64][]models.Comment)
	for _, c := range s.comments {
		if wanted[c.ItemID] {
			grouped[c.ItemID] = append(grouped[c.ItemID], *c)
		}
	}
	for _, comments := range grouped {
		sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	}
	return grouped, nil
}

// ---- requests ----

func (s *Store) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRequestID++
	request.ID = s.nextRequestID
	request.CreatedAt = time.Now().UTC()

	cp := *request
	s.requests[request.ID] = &cp
	return nil
}

func (s *Store) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, database.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func sortRequests(requests []models.ItemRequest) {
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].ID > requests[j].ID
	})
}

func (s *Store) GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []models.ItemRequest
	for _, r := range s.requests {
		if r.RequestorID == requestorID {
			requests = append(requests, *r)
		}
	}
	sortRequests(requests)
	return requests, nil
}

func (s *Store) GetRequestsByOthers(ctx context.Context, userID int64, from, size int) ([]models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []models.ItemRequest
	for _, r := range s.requests {
		if r.RequestorID != userID {
			requests = append(requests, *r)
		}
	}
	sortRequests(requests)
	lo, hi := pageWindow(len(requests), from, size)
	return requests[lo:hi], nil
}

// ---- ledger queue ----

func (s *Store) CreateLedgerTask(ctx context.Context, task *models.LedgerTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	task.ID = s.nextTaskID
	task.CreatedAt = time.Now().UTC()
	if task.Status == "" {
		task.Status = "pending"
	}

	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

func (s *Store) GetPendingLedgerTasks(ctx context.Context, limit int) ([]models.LedgerTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	var tasks []models.LedgerTask
	for _, t := range s.tasks {
		if t.Status != "pending" && t.Status != "retry" {
			continue
		}
		if t.NextRetryAt != nil && t.NextRetryAt.After(now) {
			continue
		}
		tasks = append(tasks, *t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}

func (s *Store) UpdateLedgerTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return database.ErrLedgerTaskNotFound
	}
	t.Status = status
	if errMsg != "" {
		msg := errMsg
		t.LastError = &msg
	}
	t.NextRetryAt = nextRetryAt
	switch status {
	case "retry":
		t.RetryCount++
	case "completed", "failed":
		now := time.Now().UTC()
		t.ProcessedAt = &now
	}
	return nil
}

func (s *Store) GetFailedLedgerTasks(ctx context.Context) ([]models.LedgerTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []models.LedgerTask
	for _, t := range s.tasks {
		if t.Status == "failed" {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID > tasks[j].ID })
	return tasks, nil
}
