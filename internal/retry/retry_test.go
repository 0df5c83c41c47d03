package retry

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/metafetch/internal/apierr"
	"github.com/MrSnakeDoc/metafetch/internal/config"
	"github.com/MrSnakeDoc/metafetch/internal/logger"
	"github.com/MrSnakeDoc/metafetch/internal/retryfilter"
)

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := New(fastPolicy(3), nil).Do(context.Background(), "probe", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesMatchingErrors(t *testing.T) {
	f, err := retryfilter.New("", "", "503")
	require.NoError(t, err)

	calls := 0
	err = New(fastPolicy(3), f).Do(context.Background(), "probe", func(context.Context) error {
		calls++
		if calls < 3 {
			return &apierr.APIError{Err: &apierr.HTTPError{StatusCode: 503}}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	boom := &apierr.HTTPError{StatusCode: 500}
	err := New(fastPolicy(2), MatcherFunc(func(error) bool { return true })).
		Do(context.Background(), "fetch", func(context.Context) error {
			calls++
			return boom
		})
	assert.Same(t, boom, err)
	assert.Equal(t, 2, calls)
}

func TestDo_NonMatchingStopsImmediately(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	err := New(fastPolicy(5), MatcherFunc(func(error) bool { return false })).
		Do(context.Background(), "fetch", func(context.Context) error {
			calls++
			return sentinel
		})
	assert.Same(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := New(fastPolicy(3), nil).Do(ctx, "probe", func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestPolicy_Normalize(t *testing.T) {
	r := New(Policy{MaxAttempts: -4}, nil)
	p := r.Policy()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, DefaultInitialInterval, p.InitialInterval)
	assert.Equal(t, DefaultInitialInterval, p.MaxInterval)
	assert.Equal(t, DefaultMultiplier, p.Multiplier)
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.RetryConfig{MaxAttempts: 5, InitialInterval: time.Second})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.InitialInterval)
	assert.Equal(t, DefaultMaxInterval, p.MaxInterval)

	assert.Equal(t, DefaultPolicy(), PolicyFromConfig(config.RetryConfig{}))
}
