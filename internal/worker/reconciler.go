package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// releaseTimeout bounds the lock release issued after a run, which must
// happen even when the run's context was cancelled.
const releaseTimeout = 5 * time.Second

// errLockLost cancels a run whose lock expired or was taken over.
var errLockLost = errors.New("reconciler lock lost during run")

// Reconciler runs reconciliation passes on a ticker. Every pass holds the
// job lock, so passes never overlap across processes.
type Reconciler struct {
	svc      ports.ReconciliationService
	lock     ports.JobLock
	lockKey  string
	lockTTL  time.Duration
	interval time.Duration
	log      zerolog.Logger
}

func NewReconciler(cfg config.ReconcilerConfig, svc ports.ReconciliationService, lock ports.JobLock, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		svc:      svc,
		lock:     lock,
		lockKey:  cfg.LockKey,
		lockTTL:  cfg.LockTTL,
		interval: cfg.Interval,
		log:      log,
	}
}

// Start blocks until ctx is done.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info().Dur("interval", r.interval).Msg("starting background reconciler")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping background reconciler")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	_, err := r.RunOnce(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrReconcileInProgress()):
		r.log.Debug().Msg("reconciliation already running elsewhere, skipping tick")
	default:
		r.log.Error().Err(err).Msg("reconciliation run failed")
	}
}

// RunOnce executes a single locked reconciliation pass. It returns
// ErrReconcileInProgress when another pass holds the lock. The lock is
// refreshed while the pass runs; if a refresh finds it gone the pass is
// cancelled so it cannot overlap the next holder.
func (r *Reconciler) RunOnce(ctx context.Context) (*domain.RunSummary, error) {
	token, ok, err := r.lock.Acquire(ctx, r.lockKey, r.lockTTL)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("acquire reconciler lock: %w", err))
	}
	if !ok {
		return nil, apperror.ErrReconcileInProgress()
	}
	defer r.release(token)

	runCtx, cancel := context.WithCancelCause(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.keepAlive(runCtx, token, cancel)
	}()

	summary, err := r.svc.Run(runCtx)
	cancel(nil)
	wg.Wait()

	if errors.Is(context.Cause(runCtx), errLockLost) {
		return summary, apperror.InternalError(errLockLost)
	}
	return summary, err
}

// keepAlive refreshes the lock every third of its TTL until ctx is done.
// Transient refresh errors are retried on the next tick; the TTL still
// bounds how long the lock survives a Redis outage.
func (r *Reconciler) keepAlive(ctx context.Context, token string, lost context.CancelCauseFunc) {
	every := r.lockTTL / 3
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			held, err := r.lock.Refresh(ctx, r.lockKey, token, r.lockTTL)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.Warn().Err(err).Str("lock_key", r.lockKey).Msg("failed to refresh reconciler lock")
				continue
			}
			if !held {
				r.log.Error().Str("lock_key", r.lockKey).Msg("reconciler lock lost, cancelling run")
				lost(errLockLost)
				return
			}
		}
	}
}

func (r *Reconciler) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := r.lock.Release(ctx, r.lockKey, token); err != nil {
		r.log.Warn().Err(err).Str("lock_key", r.lockKey).Msg("failed to release reconciler lock, it will expire")
	}
}
