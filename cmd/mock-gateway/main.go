package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/paybridge/datatrans-gateway/internal/logging"
)

// A stand-in for the Datatrans hosted payment page, for local end-to-end
// runs: it accepts the signed redirect, "approves" the payment and posts
// the IPN back to the bridge the way the real gateway would.
func main() {
	logging.Init("mock-gateway", "info", os.Getenv("APP_ENV"))

	notifyURL := os.Getenv("NOTIFY_URL")
	if notifyURL == "" {
		notifyURL = "http://localhost:8080/ipn"
	}

	client := &http.Client{Timeout: 10 * time.Second}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("GET /upp/jsp/upStart.jsp", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		refno := q.Get("refno")
		slog.Info("checkout received",
			"refno", refno,
			"amount", q.Get("amount"),
			"currency", q.Get("currency"),
			"component", q.Get("component"),
			"sign", q.Get("sign"),
		)

		ipnBody := url.Values{}
		for _, field := range []string{
			"component", "contactID", "contributionID", "payment_processor_id",
			"eventID", "participantID", "membershipID", "refno", "amount",
		} {
			if q.Has(field) {
				ipnBody.Set(field, q.Get(field))
			}
		}
		ipnBody.Set("uppTransactionId", fmt.Sprintf("%d", time.Now().UnixNano()))

		resp, err := client.Post(notifyURL, "application/x-www-form-urlencoded",
			strings.NewReader(ipnBody.Encode()))
		if err != nil {
			slog.Error("failed to deliver notification", "error", err)
			http.Error(w, "notification delivery failed", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		ack, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		slog.Info("notification delivered", "status", resp.StatusCode, "ack", string(ack))

		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "mock gateway: payment approved for %s\nbridge ack: %s\n", refno, ack)
	})

	slog.Info("mock gateway started", "addr", ":8081", "notify_url", notifyURL)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
