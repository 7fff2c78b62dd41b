package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }
func int64Ptr(v int64) *int64        { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func TestUserCreateBodyValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    userCreateBody
		wantErr string
	}{
		{"valid", userCreateBody{Name: "Ivan", Email: "ivan@example.com"}, ""},
		{"blank name", userCreateBody{Name: "   ", Email: "ivan@example.com"}, "name must not be blank"},
		{"blank email", userCreateBody{Name: "Ivan", Email: ""}, "email must not be blank"},
		{"no at sign", userCreateBody{Name: "Ivan", Email: "ivan.example.com"}, "email is malformed"},
		{"at sign first", userCreateBody{Name: "Ivan", Email: "@example.com"}, "email is malformed"},
		{"at sign last", userCreateBody{Name: "Ivan", Email: "ivan@"}, "email is malformed"},
		{"space inside", userCreateBody{Name: "Ivan", Email: "iv an@example.com"}, "email is malformed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.body.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestUserPatchBodyValidate(t *testing.T) {
	// Патч может менять только имя, email проверяется лишь когда прислан.
	assert.NoError(t, userPatchBody{}.validate())
	assert.NoError(t, userPatchBody{Name: strPtr("New Name")}.validate())
	assert.NoError(t, userPatchBody{Email: strPtr("  ")}.validate())
	assert.NoError(t, userPatchBody{Email: strPtr("new@example.com")}.validate())
	assert.EqualError(t, userPatchBody{Email: strPtr("not-an-email")}.validate(), "email is malformed")
}

func TestItemCreateBodyValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    itemCreateBody
		wantErr string
	}{
		{"valid", itemCreateBody{Name: "Drill", Description: "Powerful", Available: boolPtr(true)}, ""},
		{"blank name", itemCreateBody{Name: "", Description: "Powerful", Available: boolPtr(true)}, "name must not be blank"},
		{"blank description", itemCreateBody{Name: "Drill", Description: " ", Available: boolPtr(true)}, "description must not be blank"},
		{"missing available", itemCreateBody{Name: "Drill", Description: "Powerful"}, "available is required"},
		{"available false is fine", itemCreateBody{Name: "Drill", Description: "Powerful", Available: boolPtr(false)}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.body.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestBookingCreateBodyValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		body    bookingCreateBody
		wantErr string
	}{
		{
			"valid",
			bookingCreateBody{ItemID: int64Ptr(1), Start: timePtr(now.Add(time.Hour)), End: timePtr(now.Add(2 * time.Hour))},
			"",
		},
		{
			"missing item",
			bookingCreateBody{Start: timePtr(now.Add(time.Hour)), End: timePtr(now.Add(2 * time.Hour))},
			"itemId is required",
		},
		{
			"missing start",
			bookingCreateBody{ItemID: int64Ptr(1), End: timePtr(now.Add(2 * time.Hour))},
			"start is required",
		},
		{
			"missing end",
			bookingCreateBody{ItemID: int64Ptr(1), Start: timePtr(now.Add(time.Hour))},
			"end is required",
		},
		{
			"start in the past",
			bookingCreateBody{ItemID: int64Ptr(1), Start: timePtr(now.Add(-time.Hour)), End: timePtr(now.Add(time.Hour))},
			"start must not be in the past",
		},
		{
			"end equals start",
			bookingCreateBody{ItemID: int64Ptr(1), Start: timePtr(now.Add(time.Hour)), End: timePtr(now.Add(time.Hour))},
			"end must be after start",
		},
		{
			"end before start",
			bookingCreateBody{ItemID: int64Ptr(1), Start: timePtr(now.Add(2 * time.Hour)), End: timePtr(now.Add(time.Hour))},
			"end must be after start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.body.validate(now)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestCommentAndRequestBodyValidate(t *testing.T) {
	assert.NoError(t, commentCreateBody{Text: "Great drill"}.validate())
	assert.EqualError(t, commentCreateBody{Text: "\t "}.validate(), "text must not be blank")

	assert.NoError(t, requestCreateBody{Description: "Need a ladder"}.validate())
	assert.EqualError(t, requestCreateBody{}.validate(), "description must not be blank")
}
