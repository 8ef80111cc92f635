package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ReconciliationServiceImpl implements ports.ReconciliationService. It is
// not safe to run two passes at once; callers serialise runs with a
// ports.JobLock.
type ReconciliationServiceImpl struct {
	grouper    *NotificationGrouper
	notifs     ports.NotificationRepository
	orders     ports.OrderRepository
	transactor ports.DBTransactor
	tokens     *TokenProcessor
	hooks      *HookRegistry
	encSvc     ports.EncryptionService // nil = payloads stored in clear
	hotWindow  time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewReconciliationService wires the batch processor.
func NewReconciliationService(
	cfg config.ReconcilerConfig,
	notifs ports.NotificationRepository,
	orders ports.OrderRepository,
	transactor ports.DBTransactor,
	tokens *TokenProcessor,
	hooks *HookRegistry,
	encSvc ports.EncryptionService,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		grouper:    NewNotificationGrouper(notifs),
		notifs:     notifs,
		orders:     orders,
		transactor: transactor,
		tokens:     tokens,
		hooks:      hooks,
		encSvc:     encSvc,
		hotWindow:  cfg.HotWindow,
		now:        time.Now,
		log:        log,
	}
}

// Run processes every stored notification once. Per-notification failures
// are logged and leave the notification in the store for the next run; only
// failing to read the store aborts the pass.
func (s *ReconciliationServiceImpl) Run(ctx context.Context) (*domain.RunSummary, error) {
	groups, err := s.grouper.Groups(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	summary := &domain.RunSummary{}
	cutoff := domain.SortKeyAt(s.now().Add(-s.hotWindow))

	for ref, ns := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Groups++
		s.reconcileGroup(ctx, domain.NotificationGroup{Reference: ref, Notifications: ns}, cutoff, summary)
	}

	s.log.Info().
		Int("groups", summary.Groups).
		Int("processed", summary.Processed).
		Int("ignored", summary.Ignored).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("deleted", summary.Deleted).
		Msg("reconciliation run finished")
	return summary, nil
}

func (s *ReconciliationServiceImpl) reconcileGroup(ctx context.Context, g domain.NotificationGroup, cutoff string, summary *domain.RunSummary) {
	hot := g.Last().SortKey > cutoff
	txIDs := g.TransactionIDs()

	for i := range g.Notifications {
		n := &g.Notifications[i]
		isLast := i == len(g.Notifications)-1

		mode, err := s.reconcileOne(ctx, n, isLast, hot, txIDs)
		switch {
		case err != nil:
			summary.Failed++
			s.logFailure(n, err)
		case mode == domain.ModeProcess:
			summary.Processed++
		case mode == domain.ModeIgnore:
			summary.Ignored++
		default:
			summary.Skipped++
		}

		if n.Processed {
			if err := s.notifs.Delete(ctx, n.ID); err != nil {
				s.log.Warn().Err(err).Str("event_id", n.ID).Msg("processed notification could not be removed")
				continue
			}
			summary.Deleted++
		}
	}
}

func (s *ReconciliationServiceImpl) reconcileOne(ctx context.Context, n *domain.Notification, isLast, hot bool, txIDs []string) (domain.ProcessMode, error) {
	if n.Category() == domain.EventCategoryToken {
		if n.Processed {
			return domain.ModeSkip, nil
		}
		payload, err := s.payload(n)
		if err != nil {
			return domain.ModeSkip, err
		}
		if err := s.tokens.Process(ctx, n, payload); err != nil {
			return domain.ModeSkip, err
		}
		return domain.ModeProcess, nil
	}

	mode := domain.ModeProcess
	switch {
	case hot:
		mode = domain.ModeSkip
	case n.Processed:
		mode = domain.ModeSkip
	case !isLast:
		mode = domain.ModeIgnore
	}
	if mode == domain.ModeSkip {
		return mode, nil
	}

	payload, err := s.payload(n)
	if err != nil {
		return mode, err
	}
	var p domain.PaymentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return mode, apperror.ErrInvalidPayload(fmt.Errorf("decode payload: %w", err))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return mode, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orders.GetByNumberForUpdate(ctx, dbTx, n.OrderNumber)
	if err != nil {
		return mode, apperror.InternalError(fmt.Errorf("lock order: %w", err))
	}

	var pt *domain.PaymentTransaction
	if mode == domain.ModeProcess {
		if n.Type == domain.EventTypePaymentCancelled && domain.HasNewerAttempt(n.TransactionID, txIDs) {
			mode = domain.ModeIgnore
		}
		if order == nil {
			return mode, apperror.ErrOrderNotFound(n.OrderNumber)
		}
		pt = order.PaymentTransaction(n.MerchantReference)
		if pt == nil {
			return mode, apperror.ErrPaymentTransactionNotFound(n.MerchantReference)
		}
		if !pt.IsNotificationMoreRecent(n.SortKey) {
			mode = domain.ModeIgnore
		}
	}

	if err := s.record(ctx, dbTx, mode, n, order, pt, &p); err != nil {
		return mode, err
	}
	if err := s.notifs.MarkProcessed(ctx, dbTx, n.ID); err != nil {
		return mode, apperror.InternalError(fmt.Errorf("mark processed: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return mode, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	n.Processed = true

	s.log.Info().
		Str("order_no", n.OrderNumber).
		Str("reference", n.Reference).
		Str("create_time", n.CreateTime).
		Str("mode", mode.String()).
		Msg("processed webhook")

	// an IGNOREd payload is superseded; hooks only see applied updates
	if mode == domain.ModeProcess {
		s.runHook(ctx, n, pt, payload)
	}
	return mode, nil
}

// record writes the effect of a PROCESS or IGNORE decision inside dbTx.
func (s *ReconciliationServiceImpl) record(
	ctx context.Context,
	dbTx pgx.Tx,
	mode domain.ProcessMode,
	n *domain.Notification,
	order *domain.Order,
	pt *domain.PaymentTransaction,
	p *domain.PaymentPayload,
) error {
	now := s.now().UTC()

	if mode == domain.ModeProcess {
		if n.Category() == domain.EventCategoryPayment {
			pt.ApplyPaymentUpdate(p)
		}
		pt.MarkApplied(n.SortKey)
		pt.UpdatedAt = now
		if err := s.orders.UpdatePaymentTransaction(ctx, dbTx, pt); err != nil {
			return apperror.InternalError(fmt.Errorf("update payment transaction: %w", err))
		}
		note := domain.NewOrderNote(order.OrderNo, domain.UpdateNoteText(n.Category(), p.ID, p.Status), now)
		if err := s.orders.AddNote(ctx, dbTx, note); err != nil {
			return apperror.InternalError(fmt.Errorf("add order note: %w", err))
		}
		return nil
	}

	if order == nil {
		return nil
	}
	note := domain.NewOrderNote(order.OrderNo, domain.IgnoredNoteText(p.ID, p.Status), now)
	if err := s.orders.AddNote(ctx, dbTx, note); err != nil {
		return apperror.InternalError(fmt.Errorf("add order note: %w", err))
	}
	return nil
}

func (s *ReconciliationServiceImpl) runHook(ctx context.Context, n *domain.Notification, pt *domain.PaymentTransaction, payload json.RawMessage) {
	hook, ok := s.hooks.Lookup(n.Category())
	if !ok {
		return
	}
	applied := *pt
	in := ports.HookInput{
		Type:        n.EventType(),
		OrderNo:     n.OrderNumber,
		Transaction: &applied,
		Payload:     payload,
	}
	if err := hook.Handle(ctx, in); err != nil {
		s.log.Error().Err(err).
			Str("hook", string(n.Category())).
			Str("order_no", n.OrderNumber).
			Str("reference", n.Reference).
			Str("create_time", n.CreateTime).
			Msg("transaction hook failed")
		return
	}
	s.log.Debug().Str("hook", string(n.Category())).Str("order_no", n.OrderNumber).Msg("transaction hook finished")
}

// payload returns the stored category payload, decrypting it if needed.
func (s *ReconciliationServiceImpl) payload(n *domain.Notification) (json.RawMessage, error) {
	if !n.PayloadEncrypted {
		return json.RawMessage(n.Payload), nil
	}
	if s.encSvc == nil {
		return nil, apperror.InternalError(fmt.Errorf("notification %s is encrypted but no key is configured", n.ID))
	}
	plain, err := s.encSvc.Decrypt(n.Payload)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decrypt payload: %w", err))
	}
	return json.RawMessage(plain), nil
}

func (s *ReconciliationServiceImpl) logFailure(n *domain.Notification, err error) {
	ev := s.log.Error().Err(err).
		Str("kind", string(apperror.KindOf(err))).
		Str("reference", n.Reference).
		Str("create_time", n.CreateTime)
	if n.Category() == domain.EventCategoryToken {
		ev = ev.Str("customer_id", n.CustomerID)
	} else {
		ev = ev.Str("order_no", n.OrderNumber)
	}
	ev.Msg("error processing webhook")
}
