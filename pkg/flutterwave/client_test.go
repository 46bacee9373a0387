package flutterwave

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stuvendor/stuvendor-backend/pkg/config"
	"github.com/stuvendor/stuvendor-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(context.Background(), config.FlutterwaveConfig{
		BaseURL:         baseURL,
		Secret:          "sk_test",
		Currency:        "NGN",
		TransferTimeout: timeout,
	}, logg)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return client
}

func TestTransferSuccess(t *testing.T) {
	var gotAuth string
	var gotBody transferRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":{"id":984221}}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, time.Second)
	result, err := client.Transfer(context.Background(), TransferParams{
		BankCode:      "058",
		AccountNumber: "0690000031",
		Amount:        decimal.NewFromInt(5000),
		Reference:     "wd-abc",
		Narration:     "vendor withdrawal",
	})
	if err != nil {
		t.Fatalf("Transfer error: %v", err)
	}

	if result.ProviderID != "984221" {
		t.Fatalf("unexpected provider id %q", result.ProviderID)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody.AccountBank != "058" || gotBody.AccountNumber != "0690000031" {
		t.Fatalf("unexpected bank details: %+v", gotBody)
	}
	if gotBody.Currency != "NGN" {
		t.Fatalf("expected configured currency fallback, got %q", gotBody.Currency)
	}
	if gotBody.Reference != "wd-abc" {
		t.Fatalf("unexpected reference %q", gotBody.Reference)
	}
}

func TestTransferRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"insufficient provider float"}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, time.Second)
	_, err := client.Transfer(context.Background(), TransferParams{
		BankCode:      "058",
		AccountNumber: "0690000031",
		Amount:        decimal.NewFromInt(100),
		Reference:     "wd-rejected",
	})
	if !errors.Is(err, ErrTransferRejected) {
		t.Fatalf("expected ErrTransferRejected, got %v", err)
	}
}

func TestTransferTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := testClient(t, srv.URL, 50*time.Millisecond)
	_, err := client.Transfer(context.Background(), TransferParams{
		BankCode:      "058",
		AccountNumber: "0690000031",
		Amount:        decimal.NewFromInt(100),
		Reference:     "wd-timeout",
	})
	if !errors.Is(err, ErrTransferTimeout) {
		t.Fatalf("expected ErrTransferTimeout, got %v", err)
	}
}

func TestTransferValidation(t *testing.T) {
	client := testClient(t, "http://localhost:0", time.Second)

	if _, err := client.Transfer(context.Background(), TransferParams{
		AccountNumber: "0690000031",
		Amount:        decimal.NewFromInt(100),
		Reference:     "wd-x",
	}); err == nil {
		t.Fatal("expected error for missing bank code")
	}

	if _, err := client.Transfer(context.Background(), TransferParams{
		BankCode:      "058",
		AccountNumber: "0690000031",
		Amount:        decimal.Zero,
		Reference:     "wd-x",
	}); err == nil {
		t.Fatal("expected error for non-positive amount")
	}
}
