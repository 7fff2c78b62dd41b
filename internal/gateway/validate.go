package gateway

import (
	"fmt"
	"strings"
	"time"
)

// Тела запросов разбираются только ради проверки полей, дальше в ядро
// уходит исходный JSON.

type userCreateBody struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type userPatchBody struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type itemCreateBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   int64  `json:"requestId"`
}

type bookingCreateBody struct {
	ItemID *int64     `json:"itemId"`
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
}

type commentCreateBody struct {
	Text string `json:"text"`
}

type requestCreateBody struct {
	Description string `json:"description"`
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (b userCreateBody) validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("name must not be blank")
	}
	if strings.TrimSpace(b.Email) == "" {
		return fmt.Errorf("email must not be blank")
	}
	if !validEmail(b.Email) {
		return fmt.Errorf("email is malformed")
	}
	return nil
}

func (b userPatchBody) validate() error {
	if b.Email != nil && strings.TrimSpace(*b.Email) != "" && !validEmail(*b.Email) {
		return fmt.Errorf("email is malformed")
	}
	return nil
}

func (b itemCreateBody) validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("name must not be blank")
	}
	if strings.TrimSpace(b.Description) == "" {
		return fmt.Errorf("description must not be blank")
	}
	if b.Available == nil {
		return fmt.Errorf("available is required")
	}
	return nil
}

func (b bookingCreateBody) validate(now time.Time) error {
	if b.ItemID == nil {
		return fmt.Errorf("itemId is required")
	}
	if b.Start == nil {
		return fmt.Errorf("start is required")
	}
	if b.End == nil {
		return fmt.Errorf("end is required")
	}
	if b.Start.Before(now) {
		return fmt.Errorf("start must not be in the past")
	}
	if !b.End.After(*b.Start) {
		return fmt.Errorf("end must be after start")
	}
	return nil
}

func (b commentCreateBody) validate() error {
	if strings.TrimSpace(b.Text) == "" {
		return fmt.Errorf("text must not be blank")
	}
	return nil
}

func (b requestCreateBody) validate() error {
	if strings.TrimSpace(b.Description) == "" {
		return fmt.Errorf("description must not be blank")
	}
	return nil
}
