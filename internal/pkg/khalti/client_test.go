package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVerifyPaymentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/payment/verify/" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Key sk_test" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		var req VerifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(VerifyResponse{IDX: "tx123", Amount: req.Amount})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test"})

	result, err := client.VerifyPayment(context.Background(), "token-abc", 11000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.ReferenceID != "tx123" {
		t.Fatalf("expected reference tx123, got %q", result.ReferenceID)
	}
}

func TestVerifyPaymentGatewayRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Invalid token"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test"})

	if _, err := client.VerifyPayment(context.Background(), "bad-token", 500); err == nil {
		t.Fatal("expected error for rejected verification")
	}
}

func TestRefundRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(refundResponse{Refunded: false, Detail: "already refunded"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test"})

	if err := client.Refund(context.Background(), "tx123", 500); err == nil {
		t.Fatal("expected error for rejected refund")
	}
}

func TestVerifyPaymentValidation(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://khalti.com", SecretKey: "sk_test"})

	if _, err := client.VerifyPayment(context.Background(), "", 100); err == nil {
		t.Fatal("expected error for empty token")
	}
	if _, err := client.VerifyPayment(context.Background(), "tok", 0); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
