package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/paybridge/datatrans-gateway/internal/domain"
	"github.com/paybridge/datatrans-gateway/internal/ipn"
	"github.com/paybridge/datatrans-gateway/internal/logging"
)

const maxNotifyBody = 1 << 20

type dispatcher interface {
	Dispatch(ctx context.Context, n *domain.Notification, raw json.RawMessage) *ipn.Outcome
}

// NotifyHandler receives the gateway's asynchronous server-to-server
// notification. The body is url-encoded (the gateway's native format) or
// a flat JSON object; both decode into the same field set.
type NotifyHandler struct {
	dispatcher dispatcher
}

func NewNotifyHandler(d dispatcher) *NotifyHandler {
	return &NotifyHandler{dispatcher: d}
}

func (h *NotifyHandler) Receive(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotifyBody))
	if err != nil {
		log.Error("failed to read notification body", "error", err)
		RespondText(w, http.StatusBadRequest, "Failure: could not read request body")
		return
	}

	values, err := decodeNotifyBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		log.Warn("malformed notification body", "error", err)
		RespondText(w, http.StatusBadRequest, "Failure: malformed request body")
		return
	}

	n, err := ipn.ParseNotification(values)
	if err != nil {
		var fieldErr *ipn.FieldError
		if errors.As(err, &fieldErr) {
			log.Warn("notification failed validation", "field", fieldErr.Field, "missing", fieldErr.Missing)
			if fieldErr.Missing {
				RespondText(w, http.StatusBadRequest, "Failure: Missing Parameter - "+fieldErr.Field)
			} else {
				RespondText(w, http.StatusBadRequest, "Failure: Invalid Parameter - "+fieldErr.Field)
			}
			return
		}
		log.Error("notification parse error", "error", err)
		RespondText(w, http.StatusBadRequest, "Failure: invalid notification")
		return
	}

	outcome := h.dispatcher.Dispatch(r.Context(), n, auditPayload(values))
	RespondText(w, outcome.HTTPStatus, outcome.Body)
}

func decodeNotifyBody(contentType string, body []byte) (url.Values, error) {
	if strings.HasPrefix(contentType, "application/json") {
		var fields map[string]string
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, err
		}
		values := url.Values{}
		for k, v := range fields {
			values.Set(k, v)
		}
		return values, nil
	}
	return url.ParseQuery(string(body))
}

// auditPayload flattens the decoded fields to JSON for the audit row.
func auditPayload(values url.Values) json.RawMessage {
	fields := make(map[string]string, len(values))
	for k := range values {
		fields[k] = values.Get(k)
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return raw
}
