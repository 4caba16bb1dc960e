package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

const notificationLogColumns = `id, gateway_transaction_id, contribution_id,
	outcome, detail, payload, created_at`

type NotificationLogRepository struct {
	db *sql.DB
}

func NewNotificationLogRepository(db *sql.DB) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Create(ctx context.Context, entry *domain.NotificationLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ipn_notifications (
			id, gateway_transaction_id, contribution_id, outcome, detail, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.GatewayTransactionID, entry.ContributionID,
		entry.Outcome, entry.Detail, []byte(entry.Payload), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ListByContributionID returns the audit trail for one contribution,
// oldest first.
func (r *NotificationLogRepository) ListByContributionID(ctx context.Context, contributionID int64) ([]domain.NotificationLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationLogColumns+` FROM ipn_notifications
		WHERE contribution_id = $1 ORDER BY created_at`,
		contributionID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByContributionID: %w", err)
	}
	defer rows.Close()

	var entries []domain.NotificationLog
	for rows.Next() {
		e, err := scanNotificationLog(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByContributionID: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByContributionID: rows: %w", err)
	}
	return entries, nil
}

func scanNotificationLog(s scanner) (*domain.NotificationLog, error) {
	var e domain.NotificationLog
	var payload []byte

	err := s.Scan(
		&e.ID, &e.GatewayTransactionID, &e.ContributionID,
		&e.Outcome, &e.Detail, &payload, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Payload = payload
	return &e, nil
}
