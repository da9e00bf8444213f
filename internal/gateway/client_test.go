package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/pkg/logging"
)

func TestClient_SendText(t *testing.T) {
	var gotSecret string
	var gotMsg TextMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotSecret = r.Header.Get(SecretHeader)
		if err := json.NewDecoder(r.Body).Decode(&gotMsg); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "shared-secret", logging.Default())
	err := client.SendText(context.Background(), TextMessage{
		ClinicID:      "cl-1",
		PhoneNumberID: "pn-1",
		To:            "+5511912345678",
		Text:          "Olá!",
	})
	if err != nil {
		t.Fatalf("SendText returned error: %v", err)
	}
	if gotSecret != "shared-secret" {
		t.Fatalf("expected secret header, got %q", gotSecret)
	}
	if gotMsg.To != "+5511912345678" || gotMsg.PhoneNumberID != "pn-1" {
		t.Fatalf("unexpected payload %#v", gotMsg)
	}
}

func TestClient_SendText_NonSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"waba down"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret", logging.Default())
	err := client.SendText(context.Background(), TextMessage{
		ClinicID: "cl-1", PhoneNumberID: "pn-1", To: "+5511912345678", Text: "hi",
	})
	if err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestClient_SendText_Validation(t *testing.T) {
	client := NewClient("https://gateway.internal", "secret", logging.Default())
	if err := client.SendText(context.Background(), TextMessage{To: "", Text: "hi"}); err == nil {
		t.Fatal("expected error for missing to")
	}
	if err := client.SendText(context.Background(), TextMessage{To: "+55", Text: "  "}); err == nil {
		t.Fatal("expected error for empty text")
	}

	unset := NewClient("", "secret", logging.Default())
	if err := unset.SendText(context.Background(), TextMessage{To: "+55", Text: "hi"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
