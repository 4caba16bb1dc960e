package ipn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/paybridge/datatrans-gateway/internal/domain"
	"github.com/paybridge/datatrans-gateway/internal/gateway"
	"github.com/paybridge/datatrans-gateway/internal/logging"
)

type reconcileService interface {
	Process(ctx context.Context, n *domain.Notification) (*ReconcileResult, error)
}

type notificationLogStore interface {
	Create(ctx context.Context, entry *domain.NotificationLog) error
}

// Outcome is what the notify handler writes back to the gateway: a
// plain-text acknowledgment plus the HTTP status that controls whether
// the gateway keeps retrying.
type Outcome struct {
	HTTPStatus int
	Body       string
	Kind       domain.NotificationOutcome
}

func (o *Outcome) Acknowledged() bool { return o.HTTPStatus == http.StatusOK }

// Dispatcher classifies each parsed notification and routes it: gateway
// error codes and user cancellations terminate without touching the order
// store; everything else goes through the reconciler. Every notification
// leaves one audit row regardless of outcome.
type Dispatcher struct {
	reconciler reconcileService
	logs       notificationLogStore
}

func NewDispatcher(reconciler reconcileService, logs notificationLogStore) *Dispatcher {
	return &Dispatcher{reconciler: reconciler, logs: logs}
}

func (d *Dispatcher) Dispatch(ctx context.Context, n *domain.Notification, raw json.RawMessage) *Outcome {
	log := logging.FromContext(ctx)

	var outcome *Outcome
	switch {
	case n.ErrorCode != "":
		msg := gateway.ErrorMessage(n.ErrorCode)
		log.Warn("gateway reported error",
			"error_code", n.ErrorCode,
			"message", msg,
			"contribution_id", n.ContributionID,
		)
		outcome = &Outcome{
			HTTPStatus: http.StatusOK,
			Body:       fmt.Sprintf("Failure: Datatrans transaction failed: %s", msg),
			Kind:       domain.OutcomeGatewayError,
		}

	case n.Status == domain.NotificationStatusError:
		msg := "Datatrans error, but no errorCode."
		if n.ErrorDetail != "" {
			msg += " " + n.ErrorDetail
		}
		if n.ErrorMessage != "" {
			msg += " " + n.ErrorMessage
		}
		log.Warn("gateway reported error without code", "detail", msg, "contribution_id", n.ContributionID)
		outcome = &Outcome{
			HTTPStatus: http.StatusOK,
			Body:       "Failure: " + msg,
			Kind:       domain.OutcomeGatewayError,
		}

	case n.Status == domain.NotificationStatusCancel:
		log.Info("transaction canceled by customer", "contribution_id", n.ContributionID)
		outcome = &Outcome{
			HTTPStatus: http.StatusOK,
			Body:       "Failure: transaction canceled",
			Kind:       domain.OutcomeGatewayCancel,
		}

	default:
		outcome = d.reconcile(ctx, n)
	}

	d.record(ctx, n, raw, outcome)
	return outcome
}

func (d *Dispatcher) reconcile(ctx context.Context, n *domain.Notification) *Outcome {
	res, err := d.reconciler.Process(ctx, n)
	if err != nil {
		return reconcileFailure(err)
	}
	if res.Duplicate {
		return &Outcome{
			HTTPStatus: http.StatusOK,
			Body:       "Success: Contribution has already been handled",
			Kind:       domain.OutcomeDuplicate,
		}
	}
	return &Outcome{
		HTTPStatus: http.StatusOK,
		Body:       "Success: Contribution completed",
		Kind:       domain.OutcomeCompleted,
	}
}

func reconcileFailure(err error) *Outcome {
	out := &Outcome{Kind: domain.OutcomeReconcileFailed}
	switch {
	case errors.Is(err, domain.ErrContributionNotFound):
		out.HTTPStatus = http.StatusNotFound
		out.Body = "Failure: Could not find contribution record"
	case errors.Is(err, domain.ErrEventNotFound):
		out.HTTPStatus = http.StatusNotFound
		out.Body = "Failure: Could not find event"
	case errors.Is(err, domain.ErrMissingPageContext):
		out.HTTPStatus = http.StatusNotFound
		out.Body = "Failure: Could not find contribution page for contribution record"
	case errors.Is(err, domain.ErrInvoiceMismatch):
		out.HTTPStatus = http.StatusConflict
		out.Body = "Failure: Invoice values dont match between database and IPN request"
	case errors.Is(err, domain.ErrAmountMismatch):
		out.HTTPStatus = http.StatusConflict
		out.Body = "Failure: Amount values dont match between database and IPN request"
	case errors.Is(err, domain.ErrNotPending):
		out.HTTPStatus = http.StatusConflict
		out.Body = "Failure: Contribution is not awaiting payment"
	default:
		out.HTTPStatus = http.StatusInternalServerError
		out.Body = "Failure: internal error"
	}
	return out
}

// record appends the audit row. Auditing must not turn an acknowledged
// notification into a retry, so failures here are logged and swallowed.
func (d *Dispatcher) record(ctx context.Context, n *domain.Notification, raw json.RawMessage, outcome *Outcome) {
	entry := &domain.NotificationLog{
		ID:                   uuid.New(),
		GatewayTransactionID: n.GatewayTransactionID,
		ContributionID:       n.ContributionID,
		Outcome:              outcome.Kind,
		Detail:               outcome.Body,
		Payload:              raw,
		CreatedAt:            time.Now().UTC(),
	}
	if err := d.logs.Create(ctx, entry); err != nil {
		logging.FromContext(ctx).Error("failed to record notification",
			"gateway_transaction_id", n.GatewayTransactionID,
			"error", err,
		)
	}
}
