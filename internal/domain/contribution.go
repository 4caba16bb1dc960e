package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContributionStatus string

const (
	ContributionStatusPending   ContributionStatus = "pending"
	ContributionStatusCompleted ContributionStatus = "completed"
	ContributionStatusCancelled ContributionStatus = "cancelled"
	ContributionStatusFailed    ContributionStatus = "failed"
	ContributionStatusRefunded  ContributionStatus = "refunded"
)

// Contribution is the local order record created by the CRM before the
// customer is redirected to the hosted payment page. The reconciler reads
// it, cross-checks it against the notification, and performs exactly one
// terminal mutation: invoice replacement plus status completion.
type Contribution struct {
	ID                 int64
	ContactID          int64
	ContributionPageID *int64
	InvoiceID          string
	TotalAmount        decimal.Decimal
	Currency           string
	Status             ContributionStatus
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Event struct {
	ID        int64
	Title     string
	IsActive  bool
	CreatedAt time.Time
}
