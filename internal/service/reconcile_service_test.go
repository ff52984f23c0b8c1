package service

import (
	"context"
	"testing"
	"time"

	"brandlink/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryFailedCommissions(t *testing.T) {
	f := newFixture(t)
	f.gateway.transferErr = failRefsWithPrefix("comm_")
	tx := f.settle(t, f.initiate(t, "1000"))
	require.Equal(t, domain.TransferStatusFailed, tx.CommissionTransferStatus)

	rec := NewReconcileService(f.store, f.settlement, nil, ReconcileConfig{MaxCommissionAttempts: 3})

	// still failing: attempt recorded, nothing recovered
	n, err := rec.RetryFailedCommissions(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, f.reload(t, tx.ID).CommissionAttempts)

	f.gateway.transferErr = nil
	n, err = rec.RetryFailedCommissions(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := f.reload(t, tx.ID)
	assert.Equal(t, domain.TransferStatusCompleted, got.CommissionTransferStatus)
	assert.Equal(t, 3, got.CommissionAttempts)
	assert.Equal(t, "comm_"+tx.PaymentReference+"_3", got.CommissionTransferRef)

	refs := map[string]bool{}
	for _, tr := range f.gateway.transfersWithPrefix("comm_") {
		assert.False(t, refs[tr.Reference], "commission reference reused")
		refs[tr.Reference] = true
	}

	// nothing left to do
	n, err = rec.RetryFailedCommissions(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	f := newFixture(t)
	f.gateway.transferErr = failRefsWithPrefix("comm_")
	tx := f.settle(t, f.initiate(t, "1000"))

	rec := NewReconcileService(f.store, f.settlement, nil, ReconcileConfig{MaxCommissionAttempts: 2})
	_, err := rec.RetryFailedCommissions(context.Background(), 10)
	require.NoError(t, err)
	before := f.gateway.transferCount()

	_, err = rec.RetryFailedCommissions(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, before, f.gateway.transferCount())
	assert.Equal(t, 2, f.reload(t, tx.ID).CommissionAttempts)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	rec := NewReconcileService(f.store, f.settlement, nil, ReconcileConfig{StuckAfter: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
