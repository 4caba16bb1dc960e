package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, is_active, created_at FROM events WHERE id = $1`, id,
	)

	var e domain.Event
	if err := row.Scan(&e.ID, &e.Title, &e.IsActive, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrEventNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &e, nil
}
