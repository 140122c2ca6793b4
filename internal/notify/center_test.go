package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenter_PublishToAllListeners(t *testing.T) {
	t.Parallel()

	c := NewCenter()
	var first, second []Notice
	c.Subscribe(func(n Notice) { first = append(first, n) })
	c.Subscribe(func(n Notice) { second = append(second, n) })

	c.Success("posted")
	c.Error("failed")

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, LevelSuccess, first[0].Level)
	assert.Equal(t, "posted", first[0].Message)
	assert.Equal(t, LevelError, first[1].Level)
	assert.False(t, first[0].At.IsZero())
}

func TestCenter_NilIsSafe(t *testing.T) {
	t.Parallel()

	var c *Center
	assert.NotPanics(t, func() {
		c.Success("ignored")
		c.Error("ignored")
		c.Info("ignored")
	})
}
