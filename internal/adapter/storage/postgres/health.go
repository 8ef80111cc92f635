package postgres

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// HealthCheck reports whether the notification mailbox database is reachable.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping bounds the round trip so a stalled pool cannot hang /health.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return h.pool.Ping(ctx)
}

func (h *HealthCheck) Name() string {
	return "postgres"
}
