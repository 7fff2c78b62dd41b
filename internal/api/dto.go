package api

import (
	"time"

	"shareit/internal/models"
)

// Тела запросов и ответов повторяют формат клиентов: camelCase,
// краткие вложенные формы для связанных сущностей.

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   int64  `json:"requestId"`
}

type createBookingRequest struct {
	ItemID int64     `json:"itemId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type createCommentRequest struct {
	Text string `json:"text"`
}

type createRequestRequest struct {
	Description string `json:"description"`
}

type userView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type commentView struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

type itemView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   int64  `json:"requestId,omitempty"`
}

type bookingRefView struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type itemDetailsView struct {
	itemView
	LastBooking *bookingRefView `json:"lastBooking"`
	NextBooking *bookingRefView `json:"nextBooking"`
	Comments    []commentView   `json:"comments"`
}

type bookingView struct {
	ID     int64     `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Booker struct {
		ID int64 `json:"id"`
	} `json:"booker"`
	Item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"item"`
}

type requestView struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Created     time.Time  `json:"created"`
	Items       []itemView `json:"items"`
}

func toUserView(u *models.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toCommentView(c models.Comment) commentView {
	return commentView{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: c.CreatedAt}
}

func toItemView(i models.Item) itemView {
	return itemView{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

func toBookingRefView(ref *models.BookingRef) *bookingRefView {
	if ref == nil {
		return nil
	}
	return &bookingRefView{ID: ref.ID, BookerID: ref.BookerID, Start: ref.Start, End: ref.End}
}

func toItemDetailsView(d models.ItemDetails) itemDetailsView {
	view := itemDetailsView{
		itemView:    toItemView(d.Item),
		LastBooking: toBookingRefView(d.LastBooking),
		NextBooking: toBookingRefView(d.NextBooking),
		Comments:    make([]commentView, 0, len(d.Comments)),
	}
	for _, c := range d.Comments {
		view.Comments = append(view.Comments, toCommentView(c))
	}
	return view
}

func toBookingView(b *models.Booking) bookingView {
	view := bookingView{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: b.Status,
	}
	view.Booker.ID = b.BookerID
	view.Item.ID = b.ItemID
	view.Item.Name = b.ItemName
	return view
}

func toRequestView(r models.RequestDetails) requestView {
	view := requestView{
		ID:          r.ID,
		Description: r.Description,
		Created:     r.CreatedAt,
		Items:       make([]itemView, 0, len(r.Items)),
	}
	for _, item := range r.Items {
		view.Items = append(view.Items, toItemView(item))
	}
	return view
}
