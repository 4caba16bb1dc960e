package domain

// Component identifies which CRM flow a checkout or notification belongs to.
type Component string

const (
	ComponentContribute Component = "contribute"
	ComponentEvent      Component = "event"
)

// NotificationStatus is the gateway-reported outcome carried on the IPN.
// Datatrans omits the field entirely on success.
type NotificationStatus string

const (
	NotificationStatusSuccess NotificationStatus = "success"
	NotificationStatusError   NotificationStatus = "error"
	NotificationStatusCancel  NotificationStatus = "cancel"
)

// Notification is the parsed inbound IPN payload. Required fields are
// guaranteed present and well-typed by the parser; optional fields use
// pointers so "absent" survives the parse instead of collapsing to zero.
type Notification struct {
	Component          Component
	ContactID          int64
	ContributionID     int64
	EventID            *int64
	ParticipantID      *int64
	MembershipID       *int64
	PaymentProcessorID int64

	// ReferenceNumber is the merchant invoice id sent at checkout (refno);
	// GatewayTransactionID is the processor-assigned id that replaces it.
	ReferenceNumber      string
	GatewayTransactionID string

	// AmountMinor is the amount in the smallest currency unit (e.g. cents).
	AmountMinor int64

	Status       NotificationStatus
	ErrorCode    string
	ErrorDetail  string
	ErrorMessage string
}

// IsEvent reports whether the notification targets an event registration.
func (n *Notification) IsEvent() bool {
	return n.Component == ComponentEvent
}
