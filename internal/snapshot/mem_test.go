package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	snap := RoomSnapshot{
		RoomID:     "room-1",
		Doc:        []byte(`{"roomId":"room-1"}`),
		HiddenMeta: []byte(`{"handOrder":{}}`),
		Chunks:     [][]byte{[]byte(`{"index":0}`), []byte(`{"index":1}`)},
	}
	require.NoError(t, store.SaveRoom(ctx, snap))

	got, err := store.LoadRoom(ctx, "room-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Doc, got.Doc)
	assert.Equal(t, snap.HiddenMeta, got.HiddenMeta)
	assert.Equal(t, snap.Chunks, got.Chunks)
	assert.False(t, store.HasPending("room-1"))
}

func TestMemStoreLoadUnknownRoom(t *testing.T) {
	store := NewMemStore()
	got, err := store.LoadRoom(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemStoreFailedSaveKeepsCommittedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	first := RoomSnapshot{
		RoomID: "room-1",
		Doc:    []byte(`{"version":1}`),
		Chunks: [][]byte{[]byte(`a`)},
	}
	require.NoError(t, store.SaveRoom(ctx, first))

	// The second save dies mid-chunk, before the promote step.
	store.FailChunkWriteAt = 2
	second := RoomSnapshot{
		RoomID: "room-1",
		Doc:    []byte(`{"version":2}`),
		Chunks: [][]byte{[]byte(`b`), []byte(`c`)},
	}
	err := store.SaveRoom(ctx, second)
	require.ErrorIs(t, err, ErrInjectedFailure)
	assert.True(t, store.HasPending("room-1"))

	// The reader still sees the last committed snapshot, fully intact.
	got, err := store.LoadRoom(ctx, "room-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.Doc, got.Doc)
	assert.Equal(t, first.Chunks, got.Chunks)

	// Loading swept the orphaned pending artifacts.
	assert.False(t, store.HasPending("room-1"))
}

func TestMemStoreRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	store.FailChunkWriteAt = 1
	snap := RoomSnapshot{RoomID: "room-1", Doc: []byte(`x`), Chunks: [][]byte{[]byte(`a`)}}
	require.Error(t, store.SaveRoom(ctx, snap))

	// The injection is one-shot; the retry commits.
	require.NoError(t, store.SaveRoom(ctx, snap))
	got, err := store.LoadRoom(ctx, "room-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Doc, got.Doc)
}

func TestMemStoreTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	got, err := store.LoadTokens(ctx, "room-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	toks := Tokens{
		PlayerTokens:   map[string]string{"p1": "tok-1"},
		SpectatorToken: "spec-1",
	}
	require.NoError(t, store.SaveTokens(ctx, "room-1", toks))

	got, err = store.LoadTokens(ctx, "room-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok-1", got.PlayerTokens["p1"])
	assert.Equal(t, "spec-1", got.SpectatorToken)
}
