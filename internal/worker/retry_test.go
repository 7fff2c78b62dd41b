package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicy_NextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"first attempt", 1, 2 * time.Second},
		{"second attempt", 2, 4 * time.Second},
		{"third attempt", 3, 8 * time.Second},
		{"fifth attempt", 5, 32 * time.Second},
		{"clamped to max", 10, time.Minute},
		{"zero attempt treated as first", 0, 2 * time.Second},
		{"negative attempt treated as first", -3, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.NextDelay(tt.attempt))
		})
	}
}

func TestRetryPolicy_NextDelay_Defaults(t *testing.T) {
	var policy RetryPolicy

	// A zero-value policy should still produce sane delays.
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
}
