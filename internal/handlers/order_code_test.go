package handlers

import (
	"strings"
	"testing"
	"time"
)

func TestNewOrderCodeFormat(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	code, err := newOrderCode(now)
	if err != nil {
		t.Fatalf("newOrderCode returned error: %v", err)
	}

	if !strings.HasPrefix(code, "ORD-20260828-") {
		t.Fatalf("expected date-stamped prefix, got %q", code)
	}

	suffix := strings.TrimPrefix(code, "ORD-20260828-")
	if len(suffix) != orderCodeDigits {
		t.Fatalf("expected %d digit suffix, got %q", orderCodeDigits, suffix)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			t.Fatalf("expected digits-only suffix, got %q", suffix)
		}
	}
}
