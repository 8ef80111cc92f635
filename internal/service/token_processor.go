package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
	"payment-webhook-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// TokenProcessor stores tokenised cards announced by token notifications in
// the owning customer's wallet.
type TokenProcessor struct {
	customers  ports.CustomerRepository
	notifs     ports.NotificationRepository
	transactor ports.DBTransactor
	now        func() time.Time
	log        zerolog.Logger
}

func NewTokenProcessor(
	customers ports.CustomerRepository,
	notifs ports.NotificationRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *TokenProcessor {
	return &TokenProcessor{
		customers:  customers,
		notifs:     notifs,
		transactor: transactor,
		now:        time.Now,
		log:        log,
	}
}

// Process handles one token notification and marks it processed. Deleted
// tokens need no work here: removal from the wallet happens when the
// shopper deletes the card.
func (p *TokenProcessor) Process(ctx context.Context, n *domain.Notification, payload json.RawMessage) error {
	var instrument *domain.PaymentInstrument

	if n.Type != domain.EventTypeTokenDeleted {
		customer, err := p.customers.GetByNumber(ctx, n.CustomerID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("get customer: %w", err))
		}
		if customer == nil {
			return apperror.ErrCustomerNotFound(n.CustomerID)
		}

		if customer.HasToken(n.Reference) {
			p.log.Debug().Str("customer_id", n.CustomerID).Str("reference", n.Reference).Msg("token already stored")
		} else {
			var tok domain.TokenPayload
			if err := json.Unmarshal(payload, &tok); err != nil {
				return apperror.ErrInvalidPayload(fmt.Errorf("decode token payload: %w", err))
			}
			instrument, err = domain.NewInstrumentFromToken(customer.CustomerNo, &tok, p.now().UTC())
			if err != nil {
				return apperror.ErrInvalidPayload(err)
			}
		}
	}

	dbTx, err := p.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if instrument != nil {
		if err := p.customers.AddInstrument(ctx, dbTx, instrument); err != nil {
			return apperror.InternalError(fmt.Errorf("add payment instrument: %w", err))
		}
	}
	if err := p.notifs.MarkProcessed(ctx, dbTx, n.ID); err != nil {
		return apperror.InternalError(fmt.Errorf("mark processed: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	n.Processed = true

	if instrument != nil {
		p.log.Info().
			Str("customer_id", n.CustomerID).
			Str("reference", n.Reference).
			Str("create_time", n.CreateTime).
			Str("brand", instrument.Brand).
			Msg("processed token webhook")
	}
	return nil
}
