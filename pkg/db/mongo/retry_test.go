package mongo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"no documents", mongo.ErrNoDocuments, false},
		{"retryable write label", mongo.CommandError{Code: 91, Labels: []string{"RetryableWriteError"}}, true},
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, false},
		{"wrapped label", fmt.Errorf("update: %w", mongo.CommandError{Labels: []string{"NetworkError"}}), true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestWithRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
	transient := mongo.CommandError{Labels: []string{"RetryableWriteError"}}

	calls := 0
	err := WithRetry(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = WithRetry(context.Background(), policy, func(context.Context) error {
		calls++
		return transient
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls, "initial attempt plus MaxRetries")

	calls = 0
	err = WithRetry(context.Background(), policy, func(context.Context) error {
		calls++
		return mongo.ErrNoDocuments
	})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.Equal(t, 1, calls, "permanent errors are not retried")
}
