package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Add(t *testing.T) {
	store := openTestStore(t)

	e := &Entry{
		Series:     "The Apothecary Diaries",
		Season:     1,
		Episode:    3,
		Event:      EventMerged,
		SourcePath: "/downloads/show.s01e03.mkv",
		OutputPath: "/library/The Apothecary Diaries (2023)/Season 01/The Apothecary Diaries - S01E03.mkv",
	}

	require.NoError(t, store.Add(e))
	assert.NotZero(t, e.ID, "ID should be set after Add")
	assert.False(t, e.CreatedAt.IsZero(), "CreatedAt should be set")
}

func TestStore_List(t *testing.T) {
	store := openTestStore(t)

	events := []string{EventMerged, EventFailed, EventMerged}
	for i, event := range events {
		e := &Entry{Series: "Frieren", Season: 1, Episode: i + 1, Event: event}
		require.NoError(t, store.Add(e))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, store.Add(&Entry{Series: "One Piece", Season: 1, Episode: 1, Event: EventMerged}))

	entries, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	entries, err = store.List(Filter{Series: "Frieren"})
	require.NoError(t, err, "List by series")
	assert.Len(t, entries, 3)

	entries, err = store.List(Filter{Event: EventMerged})
	require.NoError(t, err, "List by event")
	assert.Len(t, entries, 3)

	ep := 2
	entries, err = store.List(Filter{Series: "Frieren", Episode: &ep})
	require.NoError(t, err, "List by episode")
	require.Len(t, entries, 1)
	assert.Equal(t, EventFailed, entries[0].Event)

	entries, err = store.List(Filter{Limit: 2})
	require.NoError(t, err, "List with limit")
	assert.Len(t, entries, 2)
}

func TestStore_List_OrderByRecent(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Add(&Entry{Series: "Frieren", Season: 1, Episode: i + 1, Event: EventMerged}))
		time.Sleep(time.Millisecond)
	}

	entries, err := store.List(Filter{})
	require.NoError(t, err)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt),
			"entries should be ordered most recent first")
	}
}

func TestStore_Merged(t *testing.T) {
	store := openTestStore(t)

	done, err := store.Merged("Frieren", 1, 1)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.Add(&Entry{Series: "Frieren", Season: 1, Episode: 1, Event: EventMerged}))
	require.NoError(t, store.Add(&Entry{Series: "Frieren", Season: 1, Episode: 2, Event: EventFailed}))

	done, err = store.Merged("Frieren", 1, 1)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = store.Merged("Frieren", 1, 2)
	require.NoError(t, err)
	assert.False(t, done, "failed episodes are not merged")
}
