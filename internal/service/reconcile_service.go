package service

import (
	"context"
	"log"
	"time"

	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
)

type ReconcileConfig struct {
	MaxCommissionAttempts int
	MaxEventAttempts      int
	StuckAfter            time.Duration
	BatchSize             int
}

// ReconcileService sweeps up what settlement could not finish in one go:
// commission transfers that failed, webhook events whose handling failed,
// and settlements that never left processing.
type ReconcileService struct {
	store      *repository.Store
	settlement *SettlementService
	webhooks   *WebhookService
	cfg        ReconcileConfig
}

// NewReconcileService builds the sweeper. webhooks may be nil, in which case
// failed events are left for redelivery.
func NewReconcileService(store *repository.Store, settlement *SettlementService, webhooks *WebhookService, cfg ReconcileConfig) *ReconcileService {
	if cfg.MaxCommissionAttempts <= 0 {
		cfg.MaxCommissionAttempts = 5
	}
	if cfg.MaxEventAttempts <= 0 {
		cfg.MaxEventAttempts = 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &ReconcileService{store: store, settlement: settlement, cfg: cfg}
}

// RetryFailedCommissions re-sends up to limit failed commission transfers
// and returns how many went through.
func (s *ReconcileService) RetryFailedCommissions(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	rows, err := s.store.WithContext(ctx).Transactions.FailedCommissions(s.cfg.MaxCommissionAttempts, limit)
	if err != nil {
		return 0, err
	}
	succeeded := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return succeeded, ctx.Err()
		}
		var attempted bool
		var transferErr error
		err := s.store.Atomic(ctx, func(tx *repository.Store) error {
			t, err := tx.Transactions.GetForUpdate(row.ID)
			if err != nil {
				return err
			}
			if t.CommissionTransferStatus != domain.TransferStatusFailed {
				return nil
			}
			attempted = true
			transferErr = s.settlement.transferCommission(ctx, t)
			return tx.Transactions.Update(t)
		})
		if err != nil {
			log.Printf("[Reconcile] commission retry %s: %v", row.PaymentReference, err)
			continue
		}
		if transferErr != nil {
			log.Printf("[Reconcile] commission retry %s failed: %v", row.PaymentReference, transferErr)
		} else if attempted {
			succeeded++
		}
	}
	return succeeded, nil
}

// StuckProcessing lists settlements claimed more than olderThan ago that
// never completed. They need an operator: transfers may have gone out.
func (s *ReconcileService) StuckProcessing(ctx context.Context, olderThan time.Duration) ([]models.Transaction, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.StuckAfter
	}
	return s.store.WithContext(ctx).Transactions.StuckProcessing(time.Now().Add(-olderThan))
}

// Run sweeps every interval until ctx is cancelled.
func (s *ReconcileService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Printf("[Reconcile] disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("[Reconcile] running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Reconcile] stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// ReplayFailedEvents dispatches again the webhook events whose handling
// failed, for example a transfer outcome that arrived before its settlement
// committed.
func (s *ReconcileService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	if s.webhooks == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	return s.webhooks.ReplayFailed(ctx, s.cfg.MaxEventAttempts, limit)
}

func (s *ReconcileService) sweep(ctx context.Context) {
	n, err := s.ReplayFailedEvents(ctx, s.cfg.BatchSize)
	if err != nil {
		log.Printf("[Reconcile] event replay: %v", err)
	} else if n > 0 {
		log.Printf("[Reconcile] %d webhook events recovered", n)
	}
	n, err = s.RetryFailedCommissions(ctx, s.cfg.BatchSize)
	if err != nil {
		log.Printf("[Reconcile] commission retries: %v", err)
	} else if n > 0 {
		log.Printf("[Reconcile] %d commission transfers recovered", n)
	}
	stuck, err := s.StuckProcessing(ctx, s.cfg.StuckAfter)
	if err != nil {
		log.Printf("[Reconcile] stuck scan: %v", err)
		return
	}
	for _, t := range stuck {
		log.Printf("[Reconcile] %s stuck in processing since %s", t.PaymentReference, t.UpdatedAt.Format(time.RFC3339))
	}
}
