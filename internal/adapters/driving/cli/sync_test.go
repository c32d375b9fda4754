package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestSyncCmd_Long(t *testing.T) {
	for _, ind := range []domain.Indicator{domain.IndicatorOffline, domain.IndicatorError, domain.IndicatorSyncing, domain.IndicatorSynced} {
		assert.Contains(t, syncCmd.Long, string(ind))
	}
}

func TestSyncStatus_Refreshes(t *testing.T) {
	f := setupFakes(t)
	f.sync.refreshed = domain.SyncState{IsOnline: true, ServerReady: true, ServerPending: 2, PendingTotal: 2}

	out, err := execute(t, "sync", "status")
	require.NoError(t, err)
	assert.Equal(t, 1, f.sync.refreshes)
	assert.Contains(t, out, "Status:        SYNCING")
	assert.Contains(t, out, "Server queue:  2")
}

func TestSyncStatus_NoRefresh(t *testing.T) {
	f := setupFakes(t)
	f.sync.state = domain.SyncState{}

	out, err := execute(t, "sync", "status", "--no-refresh")
	require.NoError(t, err)
	assert.Zero(t, f.sync.refreshes)
	assert.Contains(t, out, "OFFLINE")
}

func TestSyncStatus_RefreshFailureKeepsLocalState(t *testing.T) {
	f := setupFakes(t)
	f.sync.state = domain.SyncState{IsOnline: true, ServerReady: true, HasError: true}
	f.sync.refreshErr = errors.New("502 bad gateway")

	out, err := execute(t, "sync", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "server status unavailable: 502 bad gateway")
	assert.Contains(t, out, "ERROR")
}

func TestSyncStatus_JSON(t *testing.T) {
	f := setupFakes(t)
	f.sync.refreshed = domain.SyncState{IsOnline: true, ServerReady: true, Synced: true}

	out, err := execute(t, "sync", "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"indicator": "SYNCED"`)
	assert.Contains(t, out, `"isOnline": true`)
}

func TestSyncQueue(t *testing.T) {
	f := setupFakes(t)

	out, err := execute(t, "sync", "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "No queued writes.")

	f.queue.records = []domain.MutationRecord{
		{ID: "m-1", Key: domain.MutationUpdateProduct, Status: domain.MutationPaused, Subject: 4, CreatedAt: time.Now()},
		{ID: "m-2", Key: domain.MutationRegisterSale, Status: domain.MutationError, Error: "out of stock", CreatedAt: time.Now()},
	}
	out, err = execute(t, "sync", "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "products/update")
	assert.Contains(t, out, "paused")
	assert.Contains(t, out, "out of stock")
}

func TestSyncFlush(t *testing.T) {
	f := setupFakes(t)
	f.queue.records = []domain.MutationRecord{
		{ID: "m-1", Status: domain.MutationPaused},
		{ID: "m-2", Status: domain.MutationPaused},
		{ID: "m-3", Status: domain.MutationError},
	}

	out, err := execute(t, "sync", "flush")
	require.NoError(t, err)
	assert.True(t, f.queue.flushed)
	assert.Contains(t, out, "Sent 2 queued write(s), 1 failed")
}

func TestSyncFlush_Offline(t *testing.T) {
	f := setupFakes(t)
	f.queue.flushErr = domain.ErrOffline

	_, err := execute(t, "sync", "flush")
	assert.ErrorIs(t, err, domain.ErrOffline)
}

func TestSyncAck(t *testing.T) {
	f := setupFakes(t)
	f.queue.records = []domain.MutationRecord{{ID: "m-1"}, {ID: "m-2"}, {ID: "m-3"}}

	out, err := execute(t, "sync", "ack", "m-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"m-2"}, f.queue.acked)
	assert.Contains(t, out, "Dismissed write m-2")

	_, err = execute(t, "sync", "ack", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = execute(t, "sync", "ack", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Dismissed 2 failed write(s)")

	_, err = execute(t, "sync", "ack")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStreamSyncState_PrintsChanges(t *testing.T) {
	f := setupFakes(t)
	f.sync.state = domain.SyncState{}
	f.sync.refreshed = domain.SyncState{IsOnline: true, ServerReady: true, Synced: true}

	buf := new(bytes.Buffer)
	cmd := syncWatchCmd
	cmd.SetOut(buf)
	defer cmd.SetOut(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, streamSyncState(ctx, cmd))

	out := buf.String()
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "SYNCED")
}
