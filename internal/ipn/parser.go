package ipn

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

// FieldError reports a required notification field that is absent or fails
// type validation. The gateway will not fix and resend a malformed
// notification, so these are terminal for the request.
type FieldError struct {
	Field   string
	Missing bool
}

func (e *FieldError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing parameter %q", e.Field)
	}
	return fmt.Sprintf("invalid parameter %q", e.Field)
}

func missingField(name string) error { return &FieldError{Field: name, Missing: true} }
func invalidField(name string) error { return &FieldError{Field: name} }

// ParseNotification decodes the url-decoded IPN field set into a typed
// Notification. The first failing field wins; nothing downstream sees a
// partially validated payload.
func ParseNotification(values url.Values) (*domain.Notification, error) {
	component, err := parseComponent(values)
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{Component: component}

	if n.ContactID, err = requireInt(values, "contactID"); err != nil {
		return nil, err
	}
	if n.ContributionID, err = requireInt(values, "contributionID"); err != nil {
		return nil, err
	}
	if n.PaymentProcessorID, err = requireInt(values, "payment_processor_id"); err != nil {
		return nil, err
	}

	switch component {
	case domain.ComponentEvent:
		eventID, err := requireInt(values, "eventID")
		if err != nil {
			return nil, err
		}
		participantID, err := requireInt(values, "participantID")
		if err != nil {
			return nil, err
		}
		n.EventID = &eventID
		n.ParticipantID = &participantID
	case domain.ComponentContribute:
		if n.MembershipID, err = optionalInt(values, "membershipID"); err != nil {
			return nil, err
		}
	}

	if n.ReferenceNumber, err = requireString(values, "refno"); err != nil {
		return nil, err
	}
	if n.GatewayTransactionID, err = requireString(values, "uppTransactionId"); err != nil {
		return nil, err
	}
	if n.AmountMinor, err = requireInt(values, "amount"); err != nil {
		return nil, err
	}

	if n.Status, err = parseStatus(values); err != nil {
		return nil, err
	}
	n.ErrorCode = values.Get("errorCode")
	n.ErrorDetail = values.Get("errorDetail")
	n.ErrorMessage = values.Get("errorMessage")

	return n, nil
}

func parseComponent(values url.Values) (domain.Component, error) {
	raw, err := requireString(values, "component")
	if err != nil {
		return "", err
	}
	switch domain.Component(raw) {
	case domain.ComponentContribute, domain.ComponentEvent:
		return domain.Component(raw), nil
	}
	return "", invalidField("component")
}

func parseStatus(values url.Values) (domain.NotificationStatus, error) {
	// Datatrans omits the status field entirely on success.
	if !values.Has("status") {
		return domain.NotificationStatusSuccess, nil
	}
	switch s := domain.NotificationStatus(values.Get("status")); s {
	case domain.NotificationStatusSuccess, domain.NotificationStatusError, domain.NotificationStatusCancel:
		return s, nil
	}
	return "", invalidField("status")
}

func requireString(values url.Values, name string) (string, error) {
	if !values.Has(name) || values.Get(name) == "" {
		return "", missingField(name)
	}
	return values.Get(name), nil
}

func requireInt(values url.Values, name string) (int64, error) {
	raw, err := requireString(values, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalidField(name)
	}
	return v, nil
}

func optionalInt(values url.Values, name string) (*int64, error) {
	if !values.Has(name) || values.Get(name) == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(values.Get(name), 10, 64)
	if err != nil {
		return nil, invalidField(name)
	}
	return &v, nil
}
