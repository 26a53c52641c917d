package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "testKey"
	const value = "testValue"

	t.Run("values come from primary", func(t *testing.T) {
		primary := context.WithValue(context.Background(), key, value)
		secondary := context.Background()

		combinedCtx, cancel := CombineContext(primary, secondary)
		defer cancel()

		assert.Equal(t, value, combinedCtx.Value(key), "Combined context should inherit values from primary")
		assert.Nil(t, combinedCtx.Err(), "Context should not be done yet")
	})

	t.Run("primary cancels", func(t *testing.T) {
		primary, cancelPrimary := context.WithCancel(context.Background())
		secondary := context.Background()

		combinedCtx, cancelCombined := CombineContext(primary, secondary)
		defer cancelCombined()

		cancelPrimary()

		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond, "Combined context should be cancelled when primary is cancelled")
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("secondary cancels", func(t *testing.T) {
		primary := context.Background()
		secondary, cancelSecondary := context.WithCancel(context.Background())

		combinedCtx, cancelCombined := CombineContext(primary, secondary)
		defer cancelCombined()

		cancelSecondary()

		assert.Eventually(t, func() bool {
			return combinedCtx.Err() != nil
		}, 100*time.Millisecond, 10*time.Millisecond, "Combined context should be cancelled when secondary is cancelled")
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})

	t.Run("primary deadline", func(t *testing.T) {
		deadline := time.Now().Add(50 * time.Millisecond)
		primary, cancelPrimary := context.WithDeadline(context.Background(), deadline)
		defer cancelPrimary()
		secondary := context.Background()

		combinedCtx, cancelCombined := CombineContext(primary, secondary)
		defer cancelCombined()

		combinedDeadline, ok := combinedCtx.Deadline()
		require.True(t, ok, "Combined context should have a deadline")
		assert.InDelta(t, deadline.UnixNano(), combinedDeadline.UnixNano(), float64(10*time.Millisecond.Nanoseconds()), "Deadline should match primary")

		<-combinedCtx.Done()
		assert.ErrorIs(t, combinedCtx.Err(), context.DeadlineExceeded)
	})

	t.Run("secondary deadline", func(t *testing.T) {
		primary, cancelPrimary := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelPrimary()

		deadline2 := time.Now().Add(50 * time.Millisecond)
		secondary, cancelSecondary := context.WithDeadline(context.Background(), deadline2)
		defer cancelSecondary()

		combinedCtx, cancelCombined := CombineContext(primary, secondary)
		defer cancelCombined()

		<-combinedCtx.Done()

		assert.ErrorIs(t, secondary.Err(), context.DeadlineExceeded, "secondary should have exceeded deadline")
		// The combined context is canceled by the watcher, never timed out itself.
		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled, "Combined context should be Canceled when the secondary context finishes")
	})

	t.Run("explicit cancel", func(t *testing.T) {
		primary := context.Background()
		secondary := context.Background()

		combinedCtx, cancelCombined := CombineContext(primary, secondary)
		cancelCombined()

		assert.ErrorIs(t, combinedCtx.Err(), context.Canceled)
	})
}

func TestDetach(t *testing.T) {
	type ctxKey string
	const key ctxKey = "testKey"
	const value = "testValue"

	t.Run("keeps values", func(t *testing.T) {
		parentCtx := context.WithValue(context.Background(), key, value)
		detachedCtx := Detach(parentCtx)

		assert.Equal(t, value, detachedCtx.Value(key), "Detached context should inherit values")
	})

	t.Run("ignores parent cancel", func(t *testing.T) {
		parentCtx, cancelParent := context.WithCancel(context.Background())
		detachedCtx := Detach(parentCtx)

		cancelParent()

		assert.ErrorIs(t, parentCtx.Err(), context.Canceled)

		assert.Nil(t, detachedCtx.Err(), "Detached context should have nil Err")
		assert.Nil(t, detachedCtx.Done(), "Detached context should have nil Done channel")
	})

	t.Run("ignores parent deadline", func(t *testing.T) {
		parentCtx, cancelParent := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancelParent()

		detachedCtx := Detach(parentCtx)

		<-parentCtx.Done()
		assert.ErrorIs(t, parentCtx.Err(), context.DeadlineExceeded)

		deadline, ok := detachedCtx.Deadline()
		assert.False(t, ok, "Detached context should not have a deadline")
		assert.True(t, deadline.IsZero(), "Deadline should be zero time")
		assert.Nil(t, detachedCtx.Err(), "Detached context should not be done")
	})

	t.Run("derived keeps own deadline", func(t *testing.T) {
		parentCtx, cancelParent := context.WithCancel(context.Background())
		detachedCtx := Detach(parentCtx)

		derivedCtx, cancelDerived := context.WithTimeout(detachedCtx, 50*time.Millisecond)
		defer cancelDerived()

		cancelParent()

		<-derivedCtx.Done()

		assert.Nil(t, detachedCtx.Err(), "Detached context remains unaffected")
		assert.ErrorIs(t, derivedCtx.Err(), context.DeadlineExceeded, "Derived context respects its own timeout")
	})
}
