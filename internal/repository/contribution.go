package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

const contributionColumns = `id, contact_id, contribution_page_id, invoice_id,
	total_amount, currency, status, completed_at, created_at, updated_at`

type ContributionRepository struct {
	db *sql.DB
}

func NewContributionRepository(db *sql.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) GetByID(ctx context.Context, id int64) (*domain.Contribution, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id,
	)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrContributionNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// GetForUpdate locks the contribution row for the lifetime of tx. The
// reconciler relies on this lock to make duplicate-check-then-complete
// race-free across concurrent notifications.
func (r *ContributionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contribution, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanContribution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrContributionNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return c, nil
}

// Complete replaces the merchant invoice id with the gateway transaction
// id and marks the contribution completed.
func (r *ContributionRepository) Complete(ctx context.Context, tx *sql.Tx, id int64, newInvoiceID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE contributions
		SET invoice_id = $1, status = $2, completed_at = now(), updated_at = now()
		WHERE id = $3`,
		newInvoiceID, domain.ContributionStatusCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Complete: %w", domain.ErrContributionNotFound)
	}
	return nil
}

func scanContribution(s scanner) (*domain.Contribution, error) {
	var c domain.Contribution
	var pageID sql.NullInt64
	var completedAt sql.NullTime

	err := s.Scan(
		&c.ID, &c.ContactID, &pageID, &c.InvoiceID,
		&c.TotalAmount, &c.Currency, &c.Status, &completedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pageID.Valid {
		c.ContributionPageID = &pageID.Int64
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}

	return &c, nil
}
