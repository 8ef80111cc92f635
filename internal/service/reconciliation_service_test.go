package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"payment-webhook-gateway/config"
	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	testOrderNo = "ORD123"
	testRef     = "ORD123_1690000000000"
	testTxID1   = "000000850010000188180000100001"
	testTxID2   = "000000850010000188180000100002"
)

var reconcileNow = time.Date(2020, 1, 1, 0, 10, 0, 0, time.UTC)

// recordingHook remembers every HookInput it receives.
type recordingHook struct {
	calls []ports.HookInput
	err   error
}

func (h *recordingHook) Handle(_ context.Context, in ports.HookInput) error {
	h.calls = append(h.calls, in)
	return h.err
}

type reconcileFixture struct {
	store *memStore
	hook  *recordingHook
	svc   *ReconciliationServiceImpl
}

func setupReconciliation(t *testing.T, encSvc ports.EncryptionService) *reconcileFixture {
	t.Helper()
	store := newMemStore()
	log := newTestLogger()
	hook := &recordingHook{}

	hooks := NewHookRegistry()
	hooks.Register(domain.EventCategoryPayment, hook)

	notifs := memNotificationRepo{store}
	tokens := NewTokenProcessor(memCustomerRepo{store}, notifs, store, log)
	tokens.now = func() time.Time { return reconcileNow }

	svc := NewReconciliationService(
		config.ReconcilerConfig{HotWindow: 10 * time.Second},
		notifs, memOrderRepo{store}, store, tokens, hooks, encSvc, log,
	)
	svc.now = func() time.Time { return reconcileNow }

	return &reconcileFixture{store: store, hook: hook, svc: svc}
}

func (f *reconcileFixture) seedOrder(lastSortKey *string) uuid.UUID {
	ptID := uuid.New()
	f.store.addOrder(&domain.Order{
		OrderNo:            testOrderNo,
		Status:             domain.OrderStatusCreated,
		PaymentStatus:      domain.PaymentStatusNotPaid,
		ConfirmationStatus: domain.ConfirmationStatusNotConfirmed,
		PaymentTransactions: []domain.PaymentTransaction{{
			ID:                   ptID,
			OrderNo:              testOrderNo,
			MerchantReference:    testRef,
			LastProcessedSortKey: lastSortKey,
		}},
	})
	return ptID
}

func (f *reconcileFixture) run(t *testing.T) *domain.RunSummary {
	t.Helper()
	summary, err := f.svc.Run(context.Background())
	require.NoError(t, err)
	return summary
}

func (f *reconcileFixture) transaction(t *testing.T) domain.PaymentTransaction {
	t.Helper()
	o := f.store.order(testOrderNo)
	require.NotNil(t, o)
	require.Len(t, o.PaymentTransactions, 1)
	return o.PaymentTransactions[0]
}

func paymentNotification(t *testing.T, id, eventType, txID, status string, created time.Time) domain.Notification {
	t.Helper()
	payload, err := json.Marshal(paymentPayloadJSON(txID, testRef, status, 2980))
	require.NoError(t, err)
	createTime := domain.FormatCreateTime(created)
	return domain.Notification{
		ID:                id,
		Type:              eventType,
		TransactionID:     txID,
		OrderNumber:       testOrderNo,
		Reference:         testRef,
		MerchantReference: testRef,
		CreateTime:        createTime,
		SortKey:           domain.SortKeyOf(createTime),
		Payload:           string(payload),
	}
}

func at(sec int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, sec, 0, time.UTC)
}

func TestReconcile_LatestAppliedOlderIgnored(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	pending := paymentNotification(t, "evt-1", "payment.pending_approval", testTxID1, domain.PaymentPendingApproval, at(1))
	captured := paymentNotification(t, "evt-2", "payment.captured", testTxID1, domain.PaymentCaptured, at(2))
	f.store.put(captured, pending)

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Processed: 1, Ignored: 1, Deleted: 2}, *summary)

	pt := f.transaction(t)
	assert.Equal(t, domain.PaymentCaptured, pt.Status)
	assert.Equal(t, int64(2980), pt.Amount)
	assert.Equal(t, testTxID1, pt.ProcessorTransactionID)
	assert.True(t, pt.IsRefundable)
	require.NotNil(t, pt.LastProcessedSortKey)
	assert.Equal(t, captured.SortKey, *pt.LastProcessedSortKey)

	assert.Equal(t, []string{
		domain.IgnoredNoteText(testTxID1, domain.PaymentPendingApproval),
		domain.UpdateNoteText(domain.EventCategoryPayment, testTxID1, domain.PaymentCaptured),
	}, f.store.notesFor(testOrderNo))

	require.Len(t, f.hook.calls, 1)
	call := f.hook.calls[0]
	assert.Equal(t, testOrderNo, call.OrderNo)
	assert.Equal(t, "payment.captured", call.Type.String())
	assert.Equal(t, domain.PaymentCaptured, call.Transaction.Status)

	_, ok := f.store.notification("evt-1")
	assert.False(t, ok)
	_, ok = f.store.notification("evt-2")
	assert.False(t, ok)
}

func TestReconcile_LateArrivalDoesNotRegress(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)

	f.store.put(paymentNotification(t, "evt-2", "payment.captured", testTxID1, domain.PaymentCaptured, at(2)))
	f.run(t)

	// the older event is delivered after the newer one was applied
	f.store.put(paymentNotification(t, "evt-1", "payment.pending_approval", testTxID1, domain.PaymentPendingApproval, at(1)))
	summary := f.run(t)

	assert.Equal(t, 1, summary.Ignored)
	assert.Equal(t, 0, summary.Processed)
	pt := f.transaction(t)
	assert.Equal(t, domain.PaymentCaptured, pt.Status)
	assert.Equal(t, domain.SortKeyOf(domain.FormatCreateTime(at(2))), *pt.LastProcessedSortKey)
	assert.Len(t, f.hook.calls, 1)
}

func TestReconcile_EqualSortKeyIgnored(t *testing.T) {
	f := setupReconciliation(t, nil)
	n := paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(2))
	last := n.SortKey
	f.seedOrder(&last)
	f.store.put(n)

	summary := f.run(t)

	assert.Equal(t, 1, summary.Ignored)
	assert.Empty(t, f.transaction(t).Status)
	assert.Empty(t, f.hook.calls)
	assert.Equal(t, []string{domain.IgnoredNoteText(testTxID1, domain.PaymentCaptured)}, f.store.notesFor(testOrderNo))
}

func TestReconcile_HotGroupSkipped(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	old := paymentNotification(t, "evt-1", "payment.created", testTxID1, domain.PaymentCreated, at(1))
	fresh := paymentNotification(t, "evt-2", "payment.captured", testTxID1, domain.PaymentCaptured, reconcileNow.Add(-5*time.Second))
	f.store.put(old, fresh)

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Skipped: 2}, *summary)
	for _, id := range []string{"evt-1", "evt-2"} {
		n, ok := f.store.notification(id)
		require.True(t, ok)
		assert.False(t, n.Processed)
	}
	assert.Empty(t, f.store.notesFor(testOrderNo))
	assert.Zero(t, f.store.commits)

	// once the window has passed the group is handled
	f.svc.now = func() time.Time { return reconcileNow.Add(time.Minute) }
	summary = f.run(t)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Ignored)
}

func TestReconcile_OrderNotFoundRetained(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Failed: 1}, *summary)
	n, ok := f.store.notification("evt-1")
	require.True(t, ok)
	assert.False(t, n.Processed)
	assert.Empty(t, f.hook.calls)
}

func TestReconcile_IgnoredWithoutOrderIsStillCleared(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.put(
		paymentNotification(t, "evt-1", "payment.created", testTxID1, domain.PaymentCreated, at(1)),
		paymentNotification(t, "evt-2", "payment.captured", testTxID1, domain.PaymentCaptured, at(2)),
	)

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Ignored: 1, Failed: 1, Deleted: 1}, *summary)
	_, ok := f.store.notification("evt-1")
	assert.False(t, ok)
	_, ok = f.store.notification("evt-2")
	assert.True(t, ok)
}

func TestReconcile_PaymentTransactionNotFoundRetained(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.addOrder(&domain.Order{OrderNo: testOrderNo, Status: domain.OrderStatusCreated})
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	summary := f.run(t)

	assert.Equal(t, 1, summary.Failed)
	_, ok := f.store.notification("evt-1")
	assert.True(t, ok)
}

func TestReconcile_CancelledWithNewerAttemptIgnored(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.store.put(
		paymentNotification(t, "evt-1", "payment.created", testTxID2, domain.PaymentCreated, at(1)),
		paymentNotification(t, "evt-2", "payment.cancelled", testTxID1, domain.PaymentCancelled, at(2)),
	)

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Ignored: 2, Deleted: 2}, *summary)
	assert.Empty(t, f.transaction(t).Status)
	assert.Nil(t, f.transaction(t).LastProcessedSortKey)
	assert.Empty(t, f.hook.calls)
	assert.Len(t, f.store.notesFor(testOrderNo), 2)
}

func TestReconcile_CancelledWithoutNewerAttemptProcessed(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.store.put(paymentNotification(t, "evt-1", "payment.cancelled", testTxID1, domain.PaymentCancelled, at(1)))

	summary := f.run(t)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, domain.PaymentCancelled, f.transaction(t).Status)
	assert.Len(t, f.hook.calls, 1)
}

func TestReconcile_LeftoverProcessedDeleted(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	n := paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1))
	n.Processed = true
	f.store.put(n)

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Skipped: 1, Deleted: 1}, *summary)
	assert.Empty(t, f.transaction(t).Status)
	assert.Empty(t, f.hook.calls)
	_, ok := f.store.notification("evt-1")
	assert.False(t, ok)
}

func TestReconcile_DeleteFailureIsNotFatal(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))
	f.store.deleteErr["evt-1"] = errors.New("db down")

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Processed: 1}, *summary)
	n, ok := f.store.notification("evt-1")
	require.True(t, ok)
	assert.True(t, n.Processed)

	// the next run only cleans up
	delete(f.store.deleteErr, "evt-1")
	summary = f.run(t)
	assert.Equal(t, domain.RunSummary{Groups: 1, Skipped: 1, Deleted: 1}, *summary)
	assert.Len(t, f.hook.calls, 1)
}

func TestReconcile_HookErrorStillDeletes(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.hook.err = errors.New("placing failed")
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Processed: 1, Deleted: 1}, *summary)
	assert.Equal(t, domain.PaymentCaptured, f.transaction(t).Status)
}

func TestReconcile_WriteFailureRollsBack(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.store.noteErr = errors.New("notes table locked")
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	summary := f.run(t)

	assert.Equal(t, 1, summary.Failed)
	pt := f.transaction(t)
	assert.Empty(t, pt.Status)
	assert.Nil(t, pt.LastProcessedSortKey)
	n, ok := f.store.notification("evt-1")
	require.True(t, ok)
	assert.False(t, n.Processed)
	assert.Empty(t, f.hook.calls)
}

func TestReconcile_IdempotentAcrossRuns(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	f.store.put(paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	f.run(t)
	before := f.transaction(t)

	summary := f.run(t)
	assert.Equal(t, domain.RunSummary{}, *summary)
	assert.Equal(t, before, f.transaction(t))
	assert.Len(t, f.store.notesFor(testOrderNo), 1)
}

func TestReconcile_GroupsAreIndependent(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	other := paymentNotification(t, "evt-x", "payment.captured", testTxID1, domain.PaymentCaptured, at(1))
	other.OrderNumber = "MISSING"
	other.Reference = "MISSING_1"
	other.MerchantReference = "MISSING_1"
	f.store.put(other, paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 2, Processed: 1, Failed: 1, Deleted: 1}, *summary)
	assert.Equal(t, domain.PaymentCaptured, f.transaction(t).Status)
}

func TestReconcile_EncryptedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	encSvc := mocks.NewMockEncryptionService(ctrl)
	f := setupReconciliation(t, encSvc)
	f.seedOrder(nil)

	n := paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1))
	plain := n.Payload
	n.Payload = "sealed"
	n.PayloadEncrypted = true
	f.store.put(n)

	encSvc.EXPECT().Decrypt("sealed").Return(plain, nil)

	summary := f.run(t)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, domain.PaymentCaptured, f.transaction(t).Status)
}

func TestReconcile_EncryptedPayloadWithoutKey(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.seedOrder(nil)
	n := paymentNotification(t, "evt-1", "payment.captured", testTxID1, domain.PaymentCaptured, at(1))
	n.PayloadEncrypted = true
	f.store.put(n)

	summary := f.run(t)
	assert.Equal(t, 1, summary.Failed)
}

func tokenNotification(t *testing.T, id, eventType, tokenID, customerID string, created time.Time) domain.Notification {
	t.Helper()
	n, err := ParseWebhook(tokenWebhookBody(t, id, eventType, tokenID, customerID), created)
	require.NoError(t, err)
	createTime := domain.FormatCreateTime(created)
	n.CreateTime = createTime
	n.SortKey = domain.SortKeyOf(createTime)
	return *n
}

func TestReconcile_TokenCreatedAddsInstrument(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.customers["C001"] = &domain.Customer{CustomerNo: "C001"}
	// tokens are not held back by the hot window
	f.store.put(tokenNotification(t, "evt-t1", "token.created", "tok-1", "C001", reconcileNow.Add(-time.Second)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Processed: 1, Deleted: 1}, *summary)
	instruments := f.store.customers["C001"].Instruments
	require.Len(t, instruments, 1)
	pi := instruments[0]
	assert.Equal(t, "tok-1", pi.Token)
	assert.Equal(t, "Visa", pi.Brand)
	assert.Equal(t, "Jane Doe", pi.HolderName)
	assert.Equal(t, 12, pi.ExpirationMonth)
	assert.Equal(t, 2030, pi.ExpirationYear)
	assert.Equal(t, domain.InstrumentMethodHostedCard, pi.Method)
}

func TestReconcile_TokenAlreadyStored(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.customers["C001"] = &domain.Customer{
		CustomerNo:  "C001",
		Instruments: []domain.PaymentInstrument{{Token: "tok-1"}},
	}
	f.store.put(tokenNotification(t, "evt-t1", "token.updated", "tok-1", "C001", at(1)))

	summary := f.run(t)

	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, f.store.customers["C001"].Instruments, 1)
}

func TestReconcile_TokenCustomerMissingRetained(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.put(tokenNotification(t, "evt-t1", "token.created", "tok-1", "C404", at(1)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Failed: 1}, *summary)
	_, ok := f.store.notification("evt-t1")
	assert.True(t, ok)
}

func TestReconcile_TokenDeletedHasNoSideEffects(t *testing.T) {
	f := setupReconciliation(t, nil)
	f.store.put(tokenNotification(t, "evt-t2", "token.deleted", "tok-1", "C001", at(1)))

	summary := f.run(t)

	assert.Equal(t, domain.RunSummary{Groups: 1, Processed: 1, Deleted: 1}, *summary)
	assert.Empty(t, f.store.customers)
}

func TestReconcile_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockNotificationRepository(ctrl)
	repo.EXPECT().ListOrdered(gomock.Any()).Return(nil, errors.New("db down"))

	svc := NewReconciliationService(config.ReconcilerConfig{}, repo, nil, nil, nil, nil, nil, newTestLogger())
	_, err := svc.Run(context.Background())
	assert.Error(t, err)
}
