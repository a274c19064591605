package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLanguages(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en", "es", "fr"}, catalog.Languages())
}

func TestCatalogMatch(t *testing.T) {
	catalog := MustCatalog()

	assert.Equal(t, "es", catalog.Match("es-MX"))
	assert.Equal(t, "de", catalog.Match("de_DE.UTF-8"))
	assert.Equal(t, "en", catalog.Match(""))
	assert.Equal(t, "en", catalog.Match("!!"))
}

func TestCatalogText(t *testing.T) {
	catalog := MustCatalog()

	assert.Equal(t, "Pausar", catalog.Text("es", "ActionPause", nil))
	assert.Equal(t, "Ready for 01:30", catalog.Text("en", "ReadyBody", map[string]any{"Clock": "01:30"}))
	assert.Equal(t, "Pause", catalog.Text("xx", "ActionPause", nil))
	assert.Equal(t, "NoSuchMessage", catalog.Text("en", "NoSuchMessage", nil))
}
