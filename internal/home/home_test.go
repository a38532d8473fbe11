package home

import (
	"context"
	"sync"
	"testing"

	"ehclient/internal/listing"
	"ehclient/lib/cursor"
	"ehclient/lib/flow"
	"ehclient/lib/gallery"
	"ehclient/lib/request"

	"github.com/stretchr/testify/require"
)

// sourceFetcher answers every source with a single gallery named after it.
type sourceFetcher struct {
	lock    sync.Mutex
	sources []string
}

func (f *sourceFetcher) FetchList(ctx context.Context, source request.Source) (request.Page, error) {
	f.lock.Lock()
	f.sources = append(f.sources, source.Key())
	f.lock.Unlock()
	items := []gallery.Gallery{{GID: source.Key()}}
	return request.Page{Items: items, Cursor: cursor.First(gallery.PageNumber{}, items)}, nil
}

func (f *sourceFetcher) FetchMoreList(ctx context.Context, source request.Source, cur cursor.Cursor, listLen int) (request.Page, error) {
	return request.Page{}, nil
}

func newStore(fetcher *sourceFetcher) *flow.Store[State, Action, Env] {
	return flow.NewStore(New(), Reducer, Env{Fetcher: fetcher})
}

func TestListsAreIndependent(t *testing.T) {
	fetcher := &sourceFetcher{}
	store := newStore(fetcher)
	defer store.Close()

	store.Send(Frontpage{Action: listing.FetchGalleries{}})
	store.Send(Watched{Action: listing.FetchGalleries{}})
	store.Idle()

	state := store.Snapshot()
	require.Equal(t, "frontpage", state.Frontpage.Galleries[0].GID)
	require.Equal(t, "watched", state.Watched.Galleries[0].GID)
	require.Empty(t, state.Popular.Galleries)
}

func TestSetFavoritesIndex(t *testing.T) {
	fetcher := &sourceFetcher{}
	store := newStore(fetcher)
	defer store.Close()

	store.Send(SetFavoritesIndex{Index: 3})
	store.Idle()
	state := store.Snapshot()
	require.Equal(t, 3, state.FavoritesIndex)
	require.Equal(t, "favorites/3", state.CurrentFavorites().Galleries[0].GID)

	// already loaded, selecting it again does not refetch
	store.Send(SetFavoritesIndex{Index: -1})
	store.Send(SetFavoritesIndex{Index: 3})
	store.Idle()
	require.Equal(t, []string{"favorites/3", "favorites/-1"}, fetcher.sources)

	store.Send(SetFavoritesIndex{Index: FAVORITES_COUNT})
	store.Idle()
	require.Equal(t, 3, store.Snapshot().FavoritesIndex)
}

func TestClearCachedLists(t *testing.T) {
	fetcher := &sourceFetcher{}
	store := newStore(fetcher)
	defer store.Close()

	store.Send(Popular{Action: listing.FetchGalleries{}})
	store.Send(Favorites{Index: 0, Action: listing.FetchGalleries{}})
	store.Idle()
	state := store.Snapshot()
	require.Len(t, state.Popular.Galleries, 1)
	list, ok := state.Favorites(0)
	require.True(t, ok)
	require.Len(t, list.Galleries, 1)

	store.Send(ClearCachedLists{})
	store.Idle()
	state = store.Snapshot()
	require.Empty(t, state.Popular.Galleries)
	list, _ = state.Favorites(0)
	require.Empty(t, list.Galleries)
	require.Equal(t, "home/favorites/0", list.ID)
}
