package messenger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsToGateway(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody, gotUser, gotPass string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse form: %v", err)
		}
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		gotUser, gotPass, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	g := NewSMSGateway(Config{
		BaseURL:    ts.URL,
		AccountSID: "AC123",
		AuthToken:  "secret",
		Number:     "+15559990000",
	})

	err := g.Send(context.Background(), "+15551234567", "+15559990000", "hello there")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Errorf("Expected gateway message path, got %q", gotPath)
	}
	if gotTo != "+15551234567" || gotFrom != "+15559990000" || gotBody != "hello there" {
		t.Errorf("Expected form fields to carry the message, got To=%q From=%q Body=%q", gotTo, gotFrom, gotBody)
	}
	if gotUser != "AC123" || gotPass != "secret" {
		t.Errorf("Expected basic auth with account credentials, got %q/%q", gotUser, gotPass)
	}
}

func TestSendGatewayRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "invalid 'To' number"}`))
	}))
	defer ts.Close()

	g := NewSMSGateway(Config{BaseURL: ts.URL, AccountSID: "AC123", AuthToken: "secret"})

	err := g.Send(context.Background(), "not-a-number", "+15559990000", "hello")
	if err == nil {
		t.Fatal("Expected an error for a rejected message")
	}
}

func TestSendUnreachableGateway(t *testing.T) {
	g := NewSMSGateway(Config{BaseURL: "http://127.0.0.1:1", AccountSID: "AC123", AuthToken: "secret"})

	if err := g.Send(context.Background(), "+15551234567", "+15559990000", "hello"); err == nil {
		t.Fatal("Expected an error when the gateway is unreachable")
	}
}
