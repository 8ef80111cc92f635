package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// memStore is an in-memory database. Writes made through a memTx only
// become visible on Commit.
type memStore struct {
	mu            sync.Mutex
	notifications map[string]domain.Notification
	orders        map[string]*domain.Order
	notes         []domain.OrderNote
	customers     map[string]*domain.Customer

	deleteErr map[string]error
	noteErr   error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		notifications: make(map[string]domain.Notification),
		orders:        make(map[string]*domain.Order),
		customers:     make(map[string]*domain.Customer),
		deleteErr:     make(map[string]error),
	}
}

type memTx struct {
	pgx.Tx
	store *memStore
	ops   []func()
	done  bool
}

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{store: s}, nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, op := range t.ops {
		op()
	}
	t.store.commits++
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}

func stage(tx pgx.Tx, op func()) {
	mt := tx.(*memTx)
	mt.ops = append(mt.ops, op)
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.PaymentTransactions = slices.Clone(o.PaymentTransactions)
	return &c
}

func (s *memStore) addOrder(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.OrderNo] = cloneOrder(o)
}

func (s *memStore) order(orderNo string) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderNo]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

func (s *memStore) put(ns ...domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range ns {
		s.notifications[n.ID] = n
	}
}

func (s *memStore) notification(id string) (domain.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	return n, ok
}

func (s *memStore) notesFor(orderNo string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var texts []string
	for _, n := range s.notes {
		if n.OrderNo == orderNo {
			texts = append(texts, n.Text)
		}
	}
	return texts
}

// memNotificationRepo implements ports.NotificationRepository.
type memNotificationRepo struct{ *memStore }

func (r memNotificationRepo) Insert(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notifications[n.ID]; ok {
		return apperror.ErrDuplicateWebhook(n.ID)
	}
	r.notifications[n.ID] = *n
	return nil
}

func (r memNotificationRepo) ListOrdered(_ context.Context) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b domain.Notification) int {
		if c := strings.Compare(a.Reference, b.Reference); c != 0 {
			return c
		}
		return strings.Compare(a.SortKey, b.SortKey)
	})
	return out, nil
}

func (r memNotificationRepo) MarkProcessed(_ context.Context, tx pgx.Tx, id string) error {
	stage(tx, func() {
		if n, ok := r.notifications[id]; ok {
			n.Processed = true
			r.notifications[id] = n
		}
	})
	return nil
}

func (r memNotificationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.deleteErr[id]; err != nil {
		return err
	}
	delete(r.notifications, id)
	return nil
}

// memOrderRepo implements ports.OrderRepository.
type memOrderRepo struct{ *memStore }

func (r memOrderRepo) GetByNumber(_ context.Context, orderNo string) (*domain.Order, error) {
	return r.order(orderNo), nil
}

func (r memOrderRepo) GetByNumberForUpdate(_ context.Context, _ pgx.Tx, orderNo string) (*domain.Order, error) {
	return r.order(orderNo), nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, tx pgx.Tx, order *domain.Order) error {
	o := *order
	stage(tx, func() {
		stored, ok := r.orders[o.OrderNo]
		if !ok {
			return
		}
		stored.Status = o.Status
		stored.PaymentStatus = o.PaymentStatus
		stored.ConfirmationStatus = o.ConfirmationStatus
		stored.UpdatedAt = o.UpdatedAt
	})
	return nil
}

func (r memOrderRepo) UpdatePaymentTransaction(_ context.Context, tx pgx.Tx, pt *domain.PaymentTransaction) error {
	p := *pt
	stage(tx, func() {
		stored, ok := r.orders[p.OrderNo]
		if !ok {
			return
		}
		for i := range stored.PaymentTransactions {
			if stored.PaymentTransactions[i].ID == p.ID {
				stored.PaymentTransactions[i] = p
			}
		}
	})
	return nil
}

func (r memOrderRepo) AddNote(_ context.Context, tx pgx.Tx, note *domain.OrderNote) error {
	if r.noteErr != nil {
		return r.noteErr
	}
	n := *note
	stage(tx, func() { r.notes = append(r.notes, n) })
	return nil
}

// memCustomerRepo implements ports.CustomerRepository.
type memCustomerRepo struct{ *memStore }

func (r memCustomerRepo) GetByNumber(_ context.Context, customerNo string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerNo]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Instruments = slices.Clone(c.Instruments)
	return &cp, nil
}

func (r memCustomerRepo) AddInstrument(_ context.Context, tx pgx.Tx, pi *domain.PaymentInstrument) error {
	p := *pi
	stage(tx, func() {
		if c, ok := r.customers[p.CustomerNo]; ok {
			c.Instruments = append(c.Instruments, p)
		}
	})
	return nil
}
