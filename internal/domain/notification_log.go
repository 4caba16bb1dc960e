package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NotificationOutcome is the terminal classification recorded for every
// inbound IPN, whether or not it reached the reconciler.
type NotificationOutcome string

const (
	OutcomeCompleted       NotificationOutcome = "completed"
	OutcomeDuplicate       NotificationOutcome = "duplicate"
	OutcomeGatewayError    NotificationOutcome = "gateway_error"
	OutcomeGatewayCancel   NotificationOutcome = "gateway_cancel"
	OutcomeReconcileFailed NotificationOutcome = "reconcile_failed"
)

// NotificationLog is the audit record kept for each received notification.
// The gateway resends IPNs until acknowledged, so the same transaction id
// may appear on several rows; the log is append-only and carries no
// idempotency semantics of its own.
type NotificationLog struct {
	ID                   uuid.UUID
	GatewayTransactionID string
	ContributionID       int64
	Outcome              NotificationOutcome
	Detail               string
	Payload              json.RawMessage
	CreatedAt            time.Time
}
