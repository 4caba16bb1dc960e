package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paybridge/datatrans-gateway/internal/gateway"
)

func newCheckoutHandler(t *testing.T) *CheckoutHandler {
	t.Helper()
	signer, err := gateway.NewSigner("merchant-1", "6d7920736563726574206b6579")
	require.NoError(t, err)
	builder := gateway.NewCheckoutBuilder(signer, "https://pay.example.test/upp/jsp/upStart.jsp", "https://crm.example.test", "live")
	return NewCheckoutHandler(builder, 100)
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"component":            "contribute",
		"contact_id":           7,
		"contribution_id":      42,
		"contribution_type_id": 2,
		"payment_processor_id": 3,
		"invoice_id":           "INV-42",
		"amount":               "10.50",
		"currency":             "USD",
		"qf_key":               "qf-abc",
	}
}

func postCheckout(t *testing.T, h *CheckoutHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Redirect(rec, req)
	return rec
}

func TestCheckout_Redirect(t *testing.T) {
	h := newCheckoutHandler(t)

	rec := postCheckout(t, h, validCheckoutBody())

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	location := rec.Header().Get("Location")
	require.NotEmpty(t, location)

	u, err := url.Parse(location)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "INV-42", q.Get("refno"))
	assert.Equal(t, "1050", q.Get("amount"), "10.50 major units must become 1050 minor units")
	assert.NotEmpty(t, q.Get("sign"))

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, location, data["redirect_url"])
}

func TestCheckout_InvalidJSON(t *testing.T) {
	h := newCheckoutHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader([]byte(`{"amount":`)))
	rec := httptest.NewRecorder()
	h.Redirect(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantField string
	}{
		{
			name:      "missing invoice id",
			mutate:    func(b map[string]any) { delete(b, "invoice_id") },
			wantField: "invoice_id",
		},
		{
			name:      "missing currency",
			mutate:    func(b map[string]any) { delete(b, "currency") },
			wantField: "currency",
		},
		{
			name:      "unknown component",
			mutate:    func(b map[string]any) { b["component"] = "membership" },
			wantField: "component",
		},
		{
			name:      "event without event id",
			mutate:    func(b map[string]any) { b["component"] = "event"; b["participant_id"] = 11 },
			wantField: "event_id",
		},
		{
			name:      "amount not a number",
			mutate:    func(b map[string]any) { b["amount"] = "ten" },
			wantField: "amount",
		},
		{
			name:      "amount zero",
			mutate:    func(b map[string]any) { b["amount"] = "0" },
			wantField: "amount",
		},
		{
			name:      "amount with sub-minor precision",
			mutate:    func(b map[string]any) { b["amount"] = "10.505" },
			wantField: "amount",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newCheckoutHandler(t)
			body := validCheckoutBody()
			tc.mutate(body)

			rec := postCheckout(t, h, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)

			details, err := json.Marshal(resp.Error.Details)
			require.NoError(t, err)
			assert.Contains(t, string(details), tc.wantField)
		})
	}
}

func TestCheckout_EventComponent(t *testing.T) {
	h := newCheckoutHandler(t)

	body := validCheckoutBody()
	body["component"] = "event"
	body["event_id"] = 5
	body["participant_id"] = 11

	rec := postCheckout(t, h, body)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "5", u.Query().Get("eventID"))
	assert.Equal(t, "11", u.Query().Get("participantID"))
}
