package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, "xkeysib-test", "ops@degenecho.io")
	if err := c.Send(context.Background(), "admin@degenecho.io", "subject", "body"); err != nil {
		t.Fatal(err)
	}

	if gotKey != "xkeysib-test" {
		t.Fatalf("api-key = %q", gotKey)
	}
	var req sendRequest
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatal(err)
	}
	if req.Sender.Email != "ops@degenecho.io" || req.Subject != "subject" || req.TextContent != "body" {
		t.Fatalf("request = %+v", req)
	}
	if len(req.To) != 1 || req.To[0].Email != "admin@degenecho.io" {
		t.Fatalf("to = %+v", req.To)
	}
}

func TestSendRejectedByAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad-key", "ops@degenecho.io")
	if err := c.Send(context.Background(), "admin@degenecho.io", "s", "b"); err == nil {
		t.Fatal("want error on non-2xx response")
	}
}
