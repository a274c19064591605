package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconsForEveryKind(t *testing.T) {
	for _, kind := range []string{"ready", "running", "paused", "finished"} {
		icon, err := Icon(kind)
		require.NoError(t, err, kind)
		assert.Contains(t, string(icon.Content()), "<svg")

		again := MustIcon(kind)
		assert.Same(t, icon, again)
	}
}

func TestUnknownIcon(t *testing.T) {
	_, err := Icon("missing")
	assert.Error(t, err)
	assert.Panics(t, func() { MustIcon("missing") })
}
