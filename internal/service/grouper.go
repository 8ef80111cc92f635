package service

import (
	"context"
	"fmt"
	"iter"

	"payment-webhook-gateway/internal/core/domain"
	"payment-webhook-gateway/internal/core/ports"
)

// NotificationGrouper reads the mailbox and yields it grouped by reference.
type NotificationGrouper struct {
	repo ports.NotificationRepository
}

func NewNotificationGrouper(repo ports.NotificationRepository) *NotificationGrouper {
	return &NotificationGrouper{repo: repo}
}

// Groups fetches every stored notification once and returns a sequence of
// (reference, notifications) pairs. The sequence can be ranged over again
// without another query.
func (g *NotificationGrouper) Groups(ctx context.Context) (iter.Seq2[string, []domain.Notification], error) {
	all, err := g.repo.ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return GroupByReference(all), nil
}

// GroupByReference splits notifications, already ordered by reference and
// sort key, into contiguous runs sharing a reference.
func GroupByReference(ns []domain.Notification) iter.Seq2[string, []domain.Notification] {
	return func(yield func(string, []domain.Notification) bool) {
		start := 0
		for i := 1; i <= len(ns); i++ {
			if i < len(ns) && ns[i].Reference == ns[start].Reference {
				continue
			}
			if !yield(ns[start].Reference, ns[start:i:i]) {
				return
			}
			start = i
		}
	}
}
