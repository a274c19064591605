package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resttimer/internal/i18n"
)

func TestSingleInstanceActivatesRunningCopy(t *testing.T) {
	name := "resttimer-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	defer guard.Release()

	activated := make(chan struct{}, 1)
	guard.Serve(func() { activated <- struct{}{} })

	second, err := AcquireSingleInstance(name)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("running instance was not activated")
	}
}

func TestReleaseFreesLock(t *testing.T) {
	name := "resttimer-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	assert.NotEmpty(t, guard.Address())
	require.NoError(t, guard.Release())

	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	require.NoError(t, again.Release())

	var none *InstanceGuard
	assert.NoError(t, none.Release())
	assert.Empty(t, none.Address())
}

func TestPortFromNameIsStable(t *testing.T) {
	port := portFromName("resttimer")
	assert.Equal(t, port, portFromName("resttimer"))
	assert.GreaterOrEqual(t, port, 20000)
	assert.LessOrEqual(t, port, 39999)
}

func TestMatchFirstLocale(t *testing.T) {
	catalog := i18n.MustCatalog()

	assert.Equal(t, "de", matchFirst(catalog, []string{"", "de_DE.UTF-8", "fr"}, "en"))
	assert.Equal(t, "en", matchFirst(catalog, []string{"ja-JP"}, "en"))
	assert.Equal(t, "es", matchFirst(catalog, nil, "es"))
}
