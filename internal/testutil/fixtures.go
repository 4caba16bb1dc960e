package testutil

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

// SeedContribution inserts a contribution in the given status. pageID nil
// models a record created outside a contribution-page flow.
func SeedContribution(t *testing.T, db *sql.DB, id int64, invoiceID, amount string, status domain.ContributionStatus, pageID *int64) {
	t.Helper()

	total, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse amount %q: %v", amount, err)
	}

	_, err = db.Exec(
		`INSERT INTO contributions (id, contact_id, contribution_page_id, invoice_id, total_amount, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, id*10, pageID, invoiceID, total, status,
	)
	if err != nil {
		t.Fatalf("seed contribution %d: %v", id, err)
	}
}

func SeedEvent(t *testing.T, db *sql.DB, id int64, title string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO events (id, title) VALUES ($1, $2)`,
		id, title,
	)
	if err != nil {
		t.Fatalf("seed event %d: %v", id, err)
	}
}

func GetContribution(t *testing.T, db *sql.DB, id int64) (invoiceID string, status domain.ContributionStatus) {
	t.Helper()

	err := db.QueryRow(
		`SELECT invoice_id, status FROM contributions WHERE id = $1`, id,
	).Scan(&invoiceID, &status)
	if err != nil {
		t.Fatalf("get contribution %d: %v", id, err)
	}
	return invoiceID, status
}

func Int64Ptr(v int64) *int64 { return &v }
