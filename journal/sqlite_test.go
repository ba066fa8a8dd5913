package journal

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('orders','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["orders"])
	assert.True(t, found["equity"])
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	first := sampleOrder()
	second := sampleOrder()
	second.ID = "01JF0000000000000000000001"
	second.Side = "sell"
	second.Reason = "stop_loss"

	require.NoError(t, j.RecordOrder(first))
	require.NoError(t, j.RecordOrder(second))

	got, err := j.ListOrders()
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, "buy", got[0].Side)
	assert.InDelta(t, 1.98, got[0].Quantity, 1e-9)
	assert.Equal(t, "stop_loss", got[1].Reason)
	assert.True(t, got[0].Time.Equal(recTime))
}

func TestSQLiteSnapshots(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordSnapshot(SnapshotRecord{
		Time: recTime, Value: 1000, BuyPower: 800, NumHoldings: 1,
	}))

	got, err := j.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1000, got[0].Value, 1e-9)
	assert.Equal(t, 1, got[0].NumHoldings)
}

func TestSQLiteDuplicateIDRejected(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := sampleOrder()
	require.NoError(t, j.RecordOrder(rec))
	assert.Error(t, j.RecordOrder(rec))
}
