package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_bot_fleet/internal/domain"
)

func newTestSnapshotStore(t *testing.T) *SQLiteSnapshotStore {
	t.Helper()
	store, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteSnapshotStore_LoadEmpty(t *testing.T) {
	store := newTestSnapshotStore(t)

	snap, err := store.Load()

	require.NoError(t, err)
	assert.Nil(t, snap, "missing record reads back as no snapshot, not an error")
}

func TestSQLiteSnapshotStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestSnapshotStore(t)

	in := domain.DefaultSnapshot()
	in.Bots[0].Profit = 12.34
	in.Bots[0].Trades = 4
	in.TradingHistory = []domain.TradeRecord{{
		ID:        1,
		BotID:     1,
		Symbol:    "BTC/USD",
		Side:      domain.SideBuy,
		Amount:    250,
		Profit:    3.2,
		Success:   true,
		Timestamp: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Bots, out.Bots)
	assert.Equal(t, in.TradingHistory, out.TradingHistory)
	assert.Equal(t, in.Settings, out.Settings)
}

func TestSQLiteSnapshotStore_SaveReplaces(t *testing.T) {
	store := newTestSnapshotStore(t)

	first := domain.DefaultSnapshot()
	require.NoError(t, store.Save(first))

	second := domain.DefaultSnapshot()
	second.Bots = second.Bots[:2]
	second.Settings.MaxDrawdown = 25
	require.NoError(t, store.Save(second))

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, out.Bots, 2)
	assert.Equal(t, 25.0, out.Settings.MaxDrawdown)
}

func TestSQLiteSnapshotStore_CorruptRecord(t *testing.T) {
	store := newTestSnapshotStore(t)

	_, err := store.db.Exec(
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)`,
		"fleet_state", "{not json", time.Now())
	require.NoError(t, err)

	snap, err := store.Load()

	assert.Nil(t, snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt snapshot record")
}
