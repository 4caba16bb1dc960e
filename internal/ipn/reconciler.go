package ipn

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paybridge/datatrans-gateway/internal/domain"
	"github.com/paybridge/datatrans-gateway/internal/logging"
)

type contributionStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Contribution, error)
	Complete(ctx context.Context, tx *sql.Tx, id int64, newInvoiceID string) error
}

type eventStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
}

// ReconcileResult is the success-path outcome: either a fresh completion
// or a duplicate no-op against an already-completed contribution.
type ReconcileResult struct {
	Duplicate bool
	Amount    decimal.Decimal
}

// Reconciler matches a success notification to exactly one pending
// contribution and drives the single terminal transition. The duplicate
// gate and the completion write share one transaction with the row held
// FOR UPDATE, so concurrent retries of the same notification serialize:
// the loser observes "completed" and reports a duplicate.
type Reconciler struct {
	contributions contributionStore
	events        eventStore
	db            *sql.DB
	minorFactor   int32
	strictStatus  bool
}

func NewReconciler(contributions contributionStore, events eventStore, db *sql.DB, minorFactor int32, strictStatus bool) *Reconciler {
	return &Reconciler{
		contributions: contributions,
		events:        events,
		db:            db,
		minorFactor:   minorFactor,
		strictStatus:  strictStatus,
	}
}

func (r *Reconciler) Process(ctx context.Context, n *domain.Notification) (*ReconcileResult, error) {
	log := logging.FromContext(ctx)
	amount := decimal.NewFromInt(n.AmountMinor).Div(decimal.NewFromInt32(r.minorFactor))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Process: begin tx: %w", err)
	}
	defer tx.Rollback()

	contribution, err := r.contributions.GetForUpdate(ctx, tx, n.ContributionID)
	if err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	if err := r.checkContext(ctx, n, contribution); err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	// Sole idempotency gate. The gateway resends notifications until it
	// receives a success acknowledgment, so "already completed" is a
	// successful outcome, not an error.
	if contribution.Status == domain.ContributionStatusCompleted {
		log.Info("contribution already handled, ignoring notification",
			"contribution_id", contribution.ID,
			"gateway_transaction_id", n.GatewayTransactionID,
		)
		return &ReconcileResult{Duplicate: true, Amount: amount}, nil
	}

	if r.strictStatus && contribution.Status != domain.ContributionStatusPending {
		log.Warn("contribution not pending, refusing completion",
			"contribution_id", contribution.ID,
			"status", contribution.Status,
		)
		return nil, fmt.Errorf("Process: status %s: %w", contribution.Status, domain.ErrNotPending)
	}

	if contribution.InvoiceID != n.ReferenceNumber {
		log.Error("invoice values do not match between database and notification",
			"contribution_id", contribution.ID,
			"stored_invoice", contribution.InvoiceID,
			"notification_refno", n.ReferenceNumber,
		)
		return nil, fmt.Errorf("Process: %w", domain.ErrInvoiceMismatch)
	}

	if !contribution.TotalAmount.Equal(amount) {
		log.Error("amount values do not match between database and notification",
			"contribution_id", contribution.ID,
			"stored_amount", contribution.TotalAmount.String(),
			"notification_amount", amount.String(),
		)
		return nil, fmt.Errorf("Process: %w", domain.ErrAmountMismatch)
	}

	if err := r.contributions.Complete(ctx, tx, contribution.ID, n.GatewayTransactionID); err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Process: commit: %w", err)
	}

	log.Info("contribution completed",
		"contribution_id", contribution.ID,
		"gateway_transaction_id", n.GatewayTransactionID,
		"amount", amount.String(),
	)
	return &ReconcileResult{Amount: amount}, nil
}

// checkContext validates the references the notification makes beyond the
// contribution itself: event notifications must point at a real event,
// contribute notifications must come from a contribution page flow.
func (r *Reconciler) checkContext(ctx context.Context, n *domain.Notification, c *domain.Contribution) error {
	if n.IsEvent() {
		if n.EventID == nil {
			return domain.ErrEventNotFound
		}
		if _, err := r.events.GetByID(ctx, *n.EventID); err != nil {
			return err
		}
		return nil
	}
	if c.ContributionPageID == nil {
		return domain.ErrMissingPageContext
	}
	return nil
}
