package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func testClient() *Client {
	client := NewClient(Config{
		TmnCode:    "TESTCODE",
		HashSecret: "test-secret",
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example.com/payments/vnpay/return",
	})
	client.now = func() time.Time {
		return time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	}
	return client
}

func TestBuildPayURLRejectsAmountOutOfBounds(t *testing.T) {
	client := testClient()

	if _, err := client.BuildPayURL(4999, "ORD-1", "order", "127.0.0.1"); err == nil {
		t.Fatal("expected error for amount below the gateway minimum")
	}
	if _, err := client.BuildPayURL(1_000_000_000, "ORD-1", "order", "127.0.0.1"); err == nil {
		t.Fatal("expected error for amount at the gateway maximum")
	}
}

func TestBuildPayURLSignsParams(t *testing.T) {
	client := testClient()

	payURL, err := client.BuildPayURL(150000, "ORD-20260828-12345678", "Thanh toan don hang", "10.0.0.1")
	if err != nil {
		t.Fatalf("BuildPayURL returned error: %v", err)
	}

	parsed, err := url.Parse(payURL)
	if err != nil {
		t.Fatalf("parse pay url failed: %v", err)
	}

	query := parsed.Query()
	if query.Get("vnp_Amount") != "15000000" {
		t.Fatalf("expected amount x100, got %q", query.Get("vnp_Amount"))
	}
	if query.Get("vnp_SecureHash") == "" {
		t.Fatal("expected vnp_SecureHash in the pay url")
	}
	// Dates are rendered in GMT+7: 03:00 UTC is 10:00 at the gateway.
	if !strings.HasPrefix(query.Get("vnp_CreateDate"), "20260828100") {
		t.Fatalf("expected GMT+7 create date, got %q", query.Get("vnp_CreateDate"))
	}

	if !client.VerifyReturn(query) {
		t.Fatal("expected the signed query to verify")
	}
}

func TestVerifyReturnDetectsTampering(t *testing.T) {
	client := testClient()

	payURL, err := client.BuildPayURL(150000, "ORD-20260828-12345678", "order", "10.0.0.1")
	if err != nil {
		t.Fatalf("BuildPayURL returned error: %v", err)
	}

	parsed, _ := url.Parse(payURL)
	query := parsed.Query()
	query.Set("vnp_Amount", "100")

	if client.VerifyReturn(query) {
		t.Fatal("expected a tampered amount to fail verification")
	}
}

func TestVerifyReturnRequiresHash(t *testing.T) {
	client := testClient()

	if client.VerifyReturn(url.Values{"vnp_TxnRef": {"ORD-1"}}) {
		t.Fatal("expected a query without vnp_SecureHash to fail verification")
	}
}

func TestStatusFromCode(t *testing.T) {
	success := StatusFromCode("00")
	if !success.Success || success.Retryable {
		t.Fatalf("expected 00 to be a non-retryable success, got %+v", success)
	}

	expired := StatusFromCode("11")
	if expired.Success || !expired.Retryable {
		t.Fatalf("expected 11 to be a retryable failure, got %+v", expired)
	}

	cancelled := StatusFromCode("24")
	if cancelled.Success || cancelled.Retryable {
		t.Fatalf("expected 24 to be a terminal failure, got %+v", cancelled)
	}

	unknown := StatusFromCode("99")
	if unknown.Success || unknown.Message == "" {
		t.Fatalf("expected a generic failure for unknown codes, got %+v", unknown)
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("15000000")
	if err != nil {
		t.Fatalf("ParseAmount returned error: %v", err)
	}
	if amount != 15000000 {
		t.Fatalf("expected the raw x100 value, got %v", amount)
	}

	if _, err := ParseAmount("not-a-number"); err == nil {
		t.Fatal("expected error for a malformed amount")
	}
}

func TestAmountValueRoundsNonIntegralTotals(t *testing.T) {
	if got := AmountValue(150000); got != 15000000 {
		t.Fatalf("expected 15000000, got %d", got)
	}

	// 4019.71*100 is 401970.99999... in float64; truncation would drop a
	// dong and the callback comparison would reject a valid payment.
	if got := AmountValue(4019.71); got != 401971 {
		t.Fatalf("expected 401971, got %d", got)
	}

	total := 0.0
	for i := 0; i < 3; i++ {
		total += 33406.57
	}
	if got := AmountValue(total); got != 10021971 {
		t.Fatalf("expected 10021971, got %d", got)
	}
}
