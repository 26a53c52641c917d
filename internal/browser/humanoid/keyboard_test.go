package humanoid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/mimic/api/schemas"
)

func TestType(t *testing.T) {
	t.Run("one keystroke per rune", func(t *testing.T) {
		cfg := testConfig()
		cfg.ThinkProbability = 0
		exec := newMockExecutor()
		h := newTestHumanoid(t, cfg, exec)

		require.NoError(t, h.Type(context.Background(), "héllo"))
		assert.Equal(t, []string{"h", "é", "l", "l", "o"}, exec.keys())

		sleeps := exec.sleeps()
		require.Len(t, sleeps, 7, "focus settle, five key delays and the closing settle")
		assert.GreaterOrEqual(t, sleeps[0], cfg.FocusSettle.Min)
		assert.LessOrEqual(t, sleeps[0], cfg.FocusSettle.Max)
		for _, d := range sleeps[1:6] {
			assert.GreaterOrEqual(t, d, cfg.KeyDelay.Min)
			assert.LessOrEqual(t, d, cfg.KeyDelay.Max)
		}
		assert.GreaterOrEqual(t, sleeps[6], cfg.TypingSettle.Min)
		assert.LessOrEqual(t, sleeps[6], cfg.TypingSettle.Max)
	})

	t.Run("thinking pauses", func(t *testing.T) {
		cfg := testConfig()
		cfg.ThinkProbability = 1
		exec := newMockExecutor()
		h := newTestHumanoid(t, cfg, exec)

		require.NoError(t, h.Type(context.Background(), "abc"))
		sleeps := exec.sleeps()
		require.Len(t, sleeps, 1+3*2+1)
		for _, i := range []int{2, 4, 6} {
			assert.GreaterOrEqual(t, sleeps[i], cfg.ThinkPause.Min)
			assert.LessOrEqual(t, sleeps[i], cfg.ThinkPause.Max)
		}
	})

	t.Run("send failure is wrapped", func(t *testing.T) {
		exec := newMockExecutor()
		exec.MockSendKeys = func(ctx context.Context, keys string) error {
			return errors.New("no focused element")
		}
		h := newTestHumanoid(t, testConfig(), exec)

		err := h.Type(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to send key 'x'")
	})
}

func TestClearField(t *testing.T) {
	exec := newMockExecutor()
	h := newTestHumanoid(t, testConfig(), exec)

	require.NoError(t, h.ClearField(context.Background()))
	require.Len(t, exec.structuredKeys, 1)
	assert.Equal(t, "a", exec.structuredKeys[0].Key)
	assert.Contains(t, []schemas.KeyModifier{schemas.ModCtrl, schemas.ModMeta}, exec.structuredKeys[0].Modifiers)
	assert.Equal(t, []string{string(KeyBackspace)}, exec.keys())
}
