package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FERNANDO-ZAPCOMM/GENDEI-APP-sub002/internal/gateway"
)

func TestServiceSecret(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{"matching secret passes", "s3cret", "s3cret", http.StatusOK},
		{"missing header rejected", "s3cret", "", http.StatusUnauthorized},
		{"wrong secret rejected", "s3cret", "nope", http.StatusUnauthorized},
		{"unconfigured secret is a server fault", "", "anything", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := ServiceSecret(tc.secret, nil)(okHandler)
			req := httptest.NewRequest(http.MethodPost, "/reminders/trigger", nil)
			if tc.header != "" {
				req.Header.Set(gateway.SecretHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
