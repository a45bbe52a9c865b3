package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/soapflow/internal/asmr"
	"github.com/sant0-9/soapflow/internal/history"
	"github.com/sant0-9/soapflow/internal/templates"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "soapflow.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)

	_, ok, err := db.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.Put(ctx, "k", []byte("v1")))
	require.NoError(t, db.Put(ctx, "k", []byte("v2")))

	got, ok, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", string(got))
}

func TestTemplatesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	db, path := openTestDB(t)

	store := templates.NewStore(db, nil)
	store.Load(ctx)
	_, err := store.Update(ctx, templates.SetMasterPrompt(asmr.CuttingSoap, "sharper blade"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got := templates.NewStore(reopened, nil).Load(ctx)
	assert.Equal(t, "sharper blade", got.MasterPrompts[asmr.CuttingSoap])
}

func result(tag string) *asmr.GeneratedResult {
	return &asmr.GeneratedResult{
		Prompts: map[asmr.ContentType]string{
			asmr.DustCore:    tag + " dust",
			asmr.ClayCore:    tag + " clay",
			asmr.StarchCore:  tag + " starch",
			asmr.CuttingSoap: tag + " cut",
		},
		FinalToneBlock: tag + " tone",
	}
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)
	h := db.History()

	var _ history.Store = h

	a := history.NewItem(time.UnixMilli(10), result("a"), nil)
	b := history.NewItem(time.UnixMilli(5), result("b"), nil)
	require.NoError(t, h.Append(ctx, a))
	require.NoError(t, h.Append(ctx, b))
	assert.ErrorIs(t, h.Append(ctx, a), history.ErrDuplicateID)

	items, err := history.Collect(ctx, h)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// insertion order, not timestamp order
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
	assert.Equal(t, "a clay", items[0].Result.Prompts[asmr.ClayCore])

	got, err := h.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	require.NoError(t, h.Remove(ctx, a.ID))
	_, err = h.Get(ctx, a.ID)
	assert.ErrorIs(t, err, history.ErrNotFound)

	items, err = history.Collect(ctx, h)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
