package nativecheckout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccessTokenClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		var req struct {
			GrantType string `json:"grant_type"`
			ClientID  string `json:"client_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GrantType != "client_credentials" {
			t.Errorf("unexpected grant type %s", req.GrantType)
		}
		if req.ClientID != "client_123" {
			t.Errorf("unexpected client id %s", req.ClientID)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "A21.issued"})
	}))
	defer srv.Close()

	client := NewAccessTokenClient(srv.URL)
	token, err := client.AccessToken(context.Background(), "client_123")
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if token != "A21.issued" {
		t.Fatalf("unexpected token %s", token)
	}
}

func TestAccessTokenClientErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing client id", func(t *testing.T) {
		t.Parallel()

		client := NewAccessTokenClient("http://127.0.0.1:0")
		if _, err := client.AccessToken(context.Background(), ""); err == nil {
			t.Fatal("expected missing client id to fail")
		}
	})

	t.Run("auth endpoint failure", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid client", http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewAccessTokenClient(srv.URL)
		_, err := client.AccessToken(context.Background(), "client_123")
		if err == nil {
			t.Fatal("expected auth failure")
		}
		var handoffErr *Error
		if !errors.As(err, &handoffErr) {
			t.Fatalf("expected *Error got %T", err)
		}
		if handoffErr.Code != TokenIssueFailed {
			t.Fatalf("unexpected code %s", handoffErr.Code)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := NewAccessTokenClient(srv.URL)
		if _, err := client.AccessToken(context.Background(), "client_123"); err == nil {
			t.Fatal("expected empty token to fail")
		}
	})
}
