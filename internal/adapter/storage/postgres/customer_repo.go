package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-webhook-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CustomerRepo implements ports.CustomerRepository.
type CustomerRepo struct {
	pool Pool
}

func NewCustomerRepo(pool Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

// GetByNumber fetches a customer with the stored instruments of its wallet.
func (r *CustomerRepo) GetByNumber(ctx context.Context, customerNo string) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := r.pool.QueryRow(ctx,
		`SELECT customer_no FROM customers WHERE customer_no = $1`, customerNo,
	).Scan(&c.CustomerNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	query := `SELECT id, customer_no, method, holder_name, card_number, brand,
			expiration_month, expiration_year, token, created_at
		FROM payment_instruments WHERE customer_no = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, customerNo)
	if err != nil {
		return nil, fmt.Errorf("list payment instruments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pi domain.PaymentInstrument
		if err := rows.Scan(
			&pi.ID, &pi.CustomerNo, &pi.Method, &pi.HolderName, &pi.CardNumber, &pi.Brand,
			&pi.ExpirationMonth, &pi.ExpirationYear, &pi.Token, &pi.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment instrument: %w", err)
		}
		c.Instruments = append(c.Instruments, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment instruments: %w", err)
	}
	return c, nil
}

// AddInstrument stores pi within tx. A token already in the wallet is left
// as is.
func (r *CustomerRepo) AddInstrument(ctx context.Context, tx pgx.Tx, pi *domain.PaymentInstrument) error {
	query := `INSERT INTO payment_instruments
			(id, customer_no, method, holder_name, card_number, brand,
			 expiration_month, expiration_year, token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (customer_no, token) DO NOTHING`

	_, err := tx.Exec(ctx, query,
		pi.ID, pi.CustomerNo, pi.Method, pi.HolderName, pi.CardNumber, pi.Brand,
		pi.ExpirationMonth, pi.ExpirationYear, pi.Token, pi.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment instrument: %w", err)
	}
	return nil
}
