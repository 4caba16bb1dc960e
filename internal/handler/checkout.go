package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/paybridge/datatrans-gateway/internal/domain"
	"github.com/paybridge/datatrans-gateway/internal/gateway"
	"github.com/paybridge/datatrans-gateway/internal/logging"
)

// CheckoutHandler turns a CRM checkout request into the signed redirect
// to the hosted payment page.
type CheckoutHandler struct {
	builder     *gateway.CheckoutBuilder
	minorFactor int32
}

func NewCheckoutHandler(builder *gateway.CheckoutBuilder, minorFactor int32) *CheckoutHandler {
	return &CheckoutHandler{builder: builder, minorFactor: minorFactor}
}

type checkoutRequest struct {
	Component          string `json:"component"`
	ContactID          int64  `json:"contact_id"`
	ContributionID     int64  `json:"contribution_id"`
	ContributionTypeID int64  `json:"contribution_type_id"`
	PaymentProcessorID int64  `json:"payment_processor_id"`
	MembershipID       *int64 `json:"membership_id,omitempty"`
	EventID            *int64 `json:"event_id,omitempty"`
	ParticipantID      *int64 `json:"participant_id,omitempty"`

	InvoiceID string `json:"invoice_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	QFKey     string `json:"qf_key"`

	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Street    string `json:"street,omitempty"`
	City      string `json:"city,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`
}

func (req checkoutRequest) validate() []FieldError {
	var errs []FieldError

	switch domain.Component(req.Component) {
	case domain.ComponentContribute:
	case domain.ComponentEvent:
		if req.EventID == nil {
			errs = append(errs, FieldError{Field: "event_id", Message: "required for event checkout"})
		}
		if req.ParticipantID == nil {
			errs = append(errs, FieldError{Field: "participant_id", Message: "required for event checkout"})
		}
	default:
		errs = append(errs, FieldError{Field: "component", Message: "must be contribute or event"})
	}

	if req.ContactID <= 0 {
		errs = append(errs, FieldError{Field: "contact_id", Message: "required"})
	}
	if req.ContributionID <= 0 {
		errs = append(errs, FieldError{Field: "contribution_id", Message: "required"})
	}
	if req.PaymentProcessorID <= 0 {
		errs = append(errs, FieldError{Field: "payment_processor_id", Message: "required"})
	}
	if req.InvoiceID == "" {
		errs = append(errs, FieldError{Field: "invoice_id", Message: "required"})
	}
	if req.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	if req.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	}

	return errs
}

func (h *CheckoutHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse checkout request", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amountMinor, fieldErr := h.toMinorUnits(req.Amount)
	if fieldErr != nil {
		RespondValidationError(w, []FieldError{*fieldErr})
		return
	}

	redirectURL, err := h.builder.BuildRedirectURL(gateway.CheckoutParams{
		Component:          domain.Component(req.Component),
		ContactID:          req.ContactID,
		ContributionID:     req.ContributionID,
		ContributionTypeID: req.ContributionTypeID,
		PaymentProcessorID: req.PaymentProcessorID,
		MembershipID:       req.MembershipID,
		EventID:            req.EventID,
		ParticipantID:      req.ParticipantID,
		ReferenceNumber:    req.InvoiceID,
		AmountMinor:        amountMinor,
		Currency:           req.Currency,
		QFKey:              req.QFKey,
		Customer: &gateway.CustomerDetails{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Street:    req.Street,
			City:      req.City,
			ZipCode:   req.ZipCode,
		},
	})
	if err != nil {
		log.Error("failed to build checkout redirect", "error", err, "contribution_id", req.ContributionID)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("checkout redirect built",
		"contribution_id", req.ContributionID,
		"component", req.Component,
		"amount_minor", amountMinor,
	)

	w.Header().Set("Location", redirectURL)
	RespondJSON(w, http.StatusSeeOther, APIResponse{
		Success: true,
		Data:    map[string]string{"redirect_url": redirectURL},
	})
}

// toMinorUnits converts a major-unit decimal amount ("10.50") to the
// gateway's smallest-unit integer. The conversion must be exact; a
// fraction of a minor unit means the caller sent a bad amount.
func (h *CheckoutHandler) toMinorUnits(amount string) (int64, *FieldError) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, &FieldError{Field: "amount", Message: "must be a decimal number"}
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return 0, &FieldError{Field: "amount", Message: "must be greater than zero"}
	}

	minor := d.Mul(decimal.NewFromInt32(h.minorFactor))
	if !minor.IsInteger() {
		return 0, &FieldError{Field: "amount", Message: "has more precision than the currency allows"}
	}
	return minor.IntPart(), nil
}
