package favourites

import (
	"context"
	"testing"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/settings"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()
	store, err := settings.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddThenIsFavouriteThenRemove(t *testing.T) {
	ctx := context.Background()
	local := NewLocalProvider(newTestStore(t))
	c := New(local)

	res, err := c.Add(ctx, "Test Artist", "Test Song")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, res.ProvidersUpdated, "local")

	ok, providers, err := c.IsFavourite(ctx, "Test Artist", "Test Song")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, providers, "local")

	res, err = c.Remove(ctx, "Test Artist", "Test Song")
	require.NoError(t, err)
	require.True(t, res.Success)

	ok, _, err = c.IsFavourite(ctx, "Test Artist", "Test Song")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDuplicateAddDoesNotDoubleCount(t *testing.T) {
	ctx := context.Background()
	local := NewLocalProvider(newTestStore(t))
	c := New(local)

	_, err := c.Add(ctx, "A", "B")
	require.NoError(t, err)
	_, err = c.Add(ctx, "A", "B")
	require.NoError(t, err)

	count, err := local.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, *count)
}

func TestAddEmptyArtistFailsInvalidArgument(t *testing.T) {
	c := New(NewLocalProvider(newTestStore(t)))
	_, err := c.Add(context.Background(), "", "Some Title")
	require.Error(t, err)
	require.True(t, acerr.Is(err, acerr.InvalidArgument))
}

func TestCaseAndWhitespaceInsensitiveMatch(t *testing.T) {
	ctx := context.Background()
	c := New(NewLocalProvider(newTestStore(t)))

	_, err := c.Add(ctx, "  Daft Punk ", "Around The World")
	require.NoError(t, err)

	ok, _, err := c.IsFavourite(ctx, "daft punk", "AROUND THE WORLD")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestInactiveRemoteProviderIsExcludedFromBroadcast(t *testing.T) {
	ctx := context.Background()
	local := NewLocalProvider(newTestStore(t))
	remote := NewRemoteProvider("lastfm", true) // enabled but not authenticated
	c := New(local, remote)

	res, err := c.Add(ctx, "A", "B")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotContains(t, res.ProvidersConsidered, "lastfm")
	require.Contains(t, res.ProvidersConsidered, "local")

	remote.SetAuthenticated(true)
	res, err = c.Add(ctx, "C", "D")
	require.NoError(t, err)
	require.Contains(t, res.ProvidersConsidered, "lastfm")
	require.Contains(t, res.ProvidersUpdated, "lastfm")
}

func TestProvidersStatusReportsDisabledAndNullCount(t *testing.T) {
	local := NewLocalProvider(newTestStore(t))
	remote := NewRemoteProvider("lastfm", false)
	c := New(local, remote)

	statuses := c.ProvidersStatus(context.Background())
	require.Len(t, statuses, 2)
	require.Equal(t, "local", statuses[0].Name)
	require.True(t, statuses[0].Enabled)
	require.NotNil(t, statuses[0].FavouriteCount)

	require.Equal(t, "lastfm", statuses[1].Name)
	require.False(t, statuses[1].Enabled)
	require.Nil(t, statuses[1].FavouriteCount)
}
