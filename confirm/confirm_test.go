package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/stratd/order"
)

func testOrder() order.Order {
	return order.Order{
		Side:       order.Buy,
		Instrument: "BTC",
		Amount:     200,
		AssetPrice: 100,
		Quantity:   2,
	}
}

func TestAutoApprovesImmediately(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := Auto{}

	req, err := c.Submit(ctx, testOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)

	ok, err := Wait(ctx, c, req, time.Millisecond, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManualApprove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManual()

	req, err := m.Submit(ctx, testOrder())
	require.NoError(t, err)

	st, err := m.Status(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, Pending, st)

	require.NoError(t, m.Approve(req.ID))

	ok, err := Wait(ctx, m, req, time.Millisecond, 3)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManualReject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManual()

	req, err := m.Submit(ctx, testOrder())
	require.NoError(t, err)
	require.NoError(t, m.Reject(req.ID))

	ok, err := Wait(ctx, m, req, time.Millisecond, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaitExhaustedPollsMeansRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManual()

	req, err := m.Submit(ctx, testOrder())
	require.NoError(t, err)

	ok, err := Wait(ctx, m, req, time.Millisecond, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaitHonorsContext(t *testing.T) {
	t.Parallel()

	m := NewManual()
	req, err := m.Submit(context.Background(), testOrder())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Wait(ctx, m, req, time.Hour, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManualUnknownRequest(t *testing.T) {
	t.Parallel()

	m := NewManual()
	assert.Error(t, m.Approve("nope"))

	_, err := m.Status(context.Background(), "nope")
	assert.Error(t, err)
}

func TestManualDoubleResolveRejected(t *testing.T) {
	t.Parallel()

	m := NewManual()
	req, err := m.Submit(context.Background(), testOrder())
	require.NoError(t, err)

	require.NoError(t, m.Approve(req.ID))
	assert.Error(t, m.Reject(req.ID))
}

func TestManualPendingListsOldestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewManual()

	a, err := m.Submit(ctx, testOrder())
	require.NoError(t, err)
	b, err := m.Submit(ctx, testOrder())
	require.NoError(t, err)
	require.NoError(t, m.Approve(a.ID))

	pending := m.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)
}
