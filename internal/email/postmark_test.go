package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_SendMagicLink(t *testing.T) {
	var gotToken string
	var gotBody postmarkEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/email" {
			t.Errorf("path = %q, want /email", r.URL.Path)
		}
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("server-token", "noreply@noslimites.app", WithBaseURL(server.URL))

	err := client.SendMagicLink("alice@example.com", "https://app.example.com/auth/verify?token=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotToken != "server-token" {
		t.Errorf("server token header = %q", gotToken)
	}
	if gotBody.To != "alice@example.com" || gotBody.From != "noreply@noslimites.app" {
		t.Errorf("addressing = %q -> %q", gotBody.From, gotBody.To)
	}
	if !strings.Contains(gotBody.TextBody, "https://app.example.com/auth/verify?token=abc") {
		t.Error("text body must contain the link")
	}
	if !strings.Contains(gotBody.Subject, "Nos limites") {
		t.Errorf("subject = %q", gotBody.Subject)
	}
}

func TestClient_SendMagicLink_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("server-token", "noreply@noslimites.app", WithBaseURL(server.URL))

	if err := client.SendMagicLink("alice@example.com", "https://link"); err == nil {
		t.Fatal("expected an error on a 4xx response")
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("", "noreply@noslimites.app")
	if client.Configured() {
		t.Error("client without a token must not report configured")
	}
	if err := client.SendMagicLink("a@b.com", "https://link"); err == nil {
		t.Error("sending without a token must fail")
	}
}
