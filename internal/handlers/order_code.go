package handlers

import (
	"crypto/rand"
	"fmt"
	"time"
)

const orderCodeDigits = 8

// newOrderCode generates a human-readable order identifier, e.g.
// "ORD-20260828-48213957". The digit suffix doubles as the payment
// transaction reference.
func newOrderCode(now time.Time) (string, error) {
	var buf [orderCodeDigits]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}

	digits := make([]byte, orderCodeDigits)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), digits), nil
}
