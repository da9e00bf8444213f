package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
)

func TestHandleForwardsJob(t *testing.T) {
	var gotPath, gotSecret string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get(gateway.SecretHeader)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	cfg := config{upstreamBaseURL: srv.URL, serviceSecret: "s3cret", upstreamTimeout: time.Second}
	if err := handle(context.Background(), cfg, srv.Client(), scheduledEvent{Job: "reminders"}); err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if gotPath != "/reminders/trigger" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotSecret != "s3cret" {
		t.Fatalf("unexpected secret header %q", gotSecret)
	}
}

func TestHandlePaymentHoldsPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	cfg := config{upstreamBaseURL: srv.URL, serviceSecret: "s3cret", upstreamTimeout: time.Second}
	if err := handle(context.Background(), cfg, srv.Client(), scheduledEvent{Job: "payment-holds"}); err != nil {
		t.Fatalf("handle returned error: %v", err)
	}
	if gotPath != "/reminders/cleanup-payment-holds" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestHandleUnknownJob(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://localhost", serviceSecret: "s", upstreamTimeout: time.Second}
	if err := handle(context.Background(), cfg, http.DefaultClient, scheduledEvent{Job: "nope"}); err == nil {
		t.Fatal("expected error for unknown job")
	}
}

func TestHandleUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config{upstreamBaseURL: srv.URL, serviceSecret: "s3cret", upstreamTimeout: time.Second}
	if err := handle(context.Background(), cfg, srv.Client(), scheduledEvent{Job: "reminders"}); err == nil {
		t.Fatal("expected upstream failure to surface")
	}
}

func TestHandleReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"scan failed"}`))
	}))
	defer srv.Close()

	cfg := config{upstreamBaseURL: srv.URL, serviceSecret: "s3cret", upstreamTimeout: time.Second}
	if err := handle(context.Background(), cfg, srv.Client(), scheduledEvent{Job: "reminders"}); err == nil {
		t.Fatal("expected success=false to surface")
	}
}
