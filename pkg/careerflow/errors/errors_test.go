package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil", nil, CategoryPermanent},
		{"plain", stderrors.New("x"), CategoryPermanent},
		{"rate limit", &HTTPError{StatusCode: 429}, CategoryTransient},
		{"server error", &HTTPError{StatusCode: 502}, CategoryTransient},
		{"unauthorized", &HTTPError{StatusCode: 401}, CategoryPermanent},
		{"not found", &HTTPError{StatusCode: 404}, CategoryPermanent},
		{"wrapped http", fmt.Errorf("scrape: %w", &HTTPError{StatusCode: 503}), CategoryTransient},
		{"json", &JSONParseError{Message: "bad"}, CategoryMalformed},
		{"timeout", &TimeoutError{Operation: "search"}, CategoryTransient},
		{"canceled", context.Canceled, CategoryCancelled},
		{"deadline", fmt.Errorf("llm: %w", context.DeadlineExceeded), CategoryCancelled},
		{"explicit", Transient(stderrors.New("x"), "op"), CategoryTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "permanent", CategoryPermanent.String())
	assert.Equal(t, "malformed", CategoryMalformed.String())
	assert.Equal(t, "cancelled", CategoryCancelled.String())
	assert.Equal(t, "unknown", Category(99).String())
}

func TestCategorizedError(t *testing.T) {
	base := stderrors.New("boom")
	err := Permanent(base, "apify")

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "apify: boom")
	assert.Contains(t, err.Error(), "permanent")
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestWithRetryContext_SucceedsAfterTransient(t *testing.T) {
	calls := 0
	res := WithRetryContext(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{StatusCode: 503}
		}
		return "ok", nil
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "ok", res.Value)
	assert.Equal(t, 3, res.Attempts)
}

func TestWithRetryContext_StopsOnPermanent(t *testing.T) {
	calls := 0
	res := WithRetryContext(context.Background(), fastRetry(5), func(context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 401}
	})

	require.Error(t, res.Err)
	assert.Equal(t, 1, calls)
	var catErr *CategorizedError
	require.True(t, stderrors.As(res.Err, &catErr))
	assert.Equal(t, CategoryPermanent, catErr.Category)
}

func TestWithRetryContext_Exhausted(t *testing.T) {
	res := WithRetryContext(context.Background(), fastRetry(2), func(context.Context) (int, error) {
		return 0, &HTTPError{StatusCode: 500}
	})

	var catErr *CategorizedError
	require.True(t, stderrors.As(res.Err, &catErr))
	assert.Equal(t, 2, catErr.Attempts)
	assert.Equal(t, "max retries exceeded", catErr.Context)
}

func TestWithRetryContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := WithRetryContext(ctx, fastRetry(3), func(context.Context) (int, error) {
		t.Fatal("fn must not run after cancellation")
		return 0, nil
	})

	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, CategoryCancelled, Categorize(res.Err))
	assert.Equal(t, 0, res.Attempts)
}

func TestWithRetryContext_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	res := WithRetryContext(context.Background(), RetryConfig{}, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, calls)
}
