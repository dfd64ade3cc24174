package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilitylabs/tripkit/pkg/notify"
)

func TestMemoryPreferenceStorage(t *testing.T) {
	t.Parallel()

	storage := notify.NewMemoryPreferenceStorage()
	ctx := context.Background()

	_, err := storage.Load(ctx)
	require.ErrorIs(t, err, notify.ErrNoSavedPreferences)

	prefs := notify.DefaultPreferences()
	prefs.Vibration = false
	require.NoError(t, storage.Save(ctx, prefs))

	got, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs, got)

	// Later saves overwrite.
	prefs.DoNotDisturb = true
	require.NoError(t, storage.Save(ctx, prefs))
	got, err = storage.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.DoNotDisturb)
}
