package gateway

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/paybridge/datatrans-gateway/internal/domain"
)

// The hosted page only understands the CAA request type (authorize and
// settle in one step).
const requestTypeCAA = "CAA"

// CheckoutParams carries everything needed to send a customer to the
// hosted payment page. AmountMinor is already converted to the smallest
// currency unit.
type CheckoutParams struct {
	Component          domain.Component
	ContactID          int64
	ContributionID     int64
	ContributionTypeID int64
	PaymentProcessorID int64
	MembershipID       *int64
	EventID            *int64
	ParticipantID      *int64

	ReferenceNumber string
	AmountMinor     int64
	Currency        string
	QFKey           string

	Customer *CustomerDetails
}

// CustomerDetails pre-fills the hosted page when the checkout form
// captured them. Email is the gate: without it nothing is sent.
type CustomerDetails struct {
	Email     string
	FirstName string
	LastName  string
	Street    string
	City      string
	ZipCode   string
}

// CheckoutBuilder assembles the signed redirect to the gateway.
type CheckoutBuilder struct {
	signer     *Signer
	gatewayURL string
	returnBase string
	mode       string
}

func NewCheckoutBuilder(signer *Signer, gatewayURL, returnBase, mode string) *CheckoutBuilder {
	return &CheckoutBuilder{
		signer:     signer,
		gatewayURL: gatewayURL,
		returnBase: returnBase,
		mode:       mode,
	}
}

// BuildRedirectURL returns the full hosted-page URL including the sign
// parameter.
func (b *CheckoutBuilder) BuildRedirectURL(p CheckoutParams) (string, error) {
	if p.ReferenceNumber == "" {
		return "", fmt.Errorf("BuildRedirectURL: missing reference number")
	}
	if p.AmountMinor <= 0 {
		return "", fmt.Errorf("BuildRedirectURL: amount must be positive, got %d", p.AmountMinor)
	}
	if p.Component != domain.ComponentContribute && p.Component != domain.ComponentEvent {
		return "", fmt.Errorf("BuildRedirectURL: unknown component %q", p.Component)
	}
	if p.Component == domain.ComponentEvent && (p.EventID == nil || p.ParticipantID == nil) {
		return "", fmt.Errorf("BuildRedirectURL: event checkout requires eventID and participantID")
	}

	q := url.Values{}
	b.setReturnURLs(q, p.Component, p.QFKey)

	q.Set("merchantId", b.signer.MerchantID())
	q.Set("language", "en")
	q.Set("reqtype", requestTypeCAA)
	q.Set("refno", p.ReferenceNumber)
	q.Set("qfKey", p.QFKey)
	q.Set("mode", b.mode)
	q.Set("component", string(p.Component))
	q.Set("payment_processor_id", strconv.FormatInt(p.PaymentProcessorID, 10))
	q.Set("contactID", strconv.FormatInt(p.ContactID, 10))
	q.Set("contributionID", strconv.FormatInt(p.ContributionID, 10))
	q.Set("contributionTypeID", strconv.FormatInt(p.ContributionTypeID, 10))

	switch p.Component {
	case domain.ComponentContribute:
		if p.MembershipID != nil {
			q.Set("membershipID", strconv.FormatInt(*p.MembershipID, 10))
		}
	case domain.ComponentEvent:
		q.Set("eventID", strconv.FormatInt(*p.EventID, 10))
		q.Set("participantID", strconv.FormatInt(*p.ParticipantID, 10))
	}

	q.Set("amount", strconv.FormatInt(p.AmountMinor, 10))
	q.Set("currency", p.Currency)

	if c := p.Customer; c != nil && c.Email != "" {
		q.Set("uppCustomerDetails", "yes")
		q.Set("uppCustomerEmail", c.Email)
		setIfPresent(q, "uppCustomerFirstName", c.FirstName)
		setIfPresent(q, "uppCustomerLastName", c.LastName)
		setIfPresent(q, "uppCustomerStreet", c.Street)
		setIfPresent(q, "uppCustomerCity", c.City)
		setIfPresent(q, "uppCustomerZipCode", c.ZipCode)
	}

	q.Set("sign", b.signer.Sign(p.AmountMinor, p.Currency, p.ReferenceNumber))

	return b.gatewayURL + "?" + q.Encode(), nil
}

func (b *CheckoutBuilder) setReturnURLs(q url.Values, component domain.Component, qfKey string) {
	switch component {
	case domain.ComponentEvent:
		q.Set("successUrl", b.returnBase+"/civicrm/event/register?_qf_ThankYou_display=1&qfKey="+qfKey)
		q.Set("errorUrl", b.returnBase+"/civicrm/event/register?_qf_Confirm_display=true&qfKey="+qfKey)
		q.Set("cancelUrl", b.returnBase+"/civicrm/event/register?_qf_Confirm_display=true&qfKey="+qfKey)
	default:
		q.Set("successUrl", b.returnBase+"/civicrm/contribute/transact?_qf_ThankYou_display=1&qfKey="+qfKey)
		q.Set("errorUrl", b.returnBase+"/civicrm/contribute/transact?_qf_Main_display=1&cancel=1&qfKey="+qfKey)
		q.Set("cancelUrl", b.returnBase+"/civicrm/contribute/transact?_qf_Confirm_display=true&qfKey="+qfKey)
	}
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
