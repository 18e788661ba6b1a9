package checkout

import (
	"strconv"
	"strings"
	"time"
)

// PaymentDetails carries the card fields submitted at checkout. Values are
// format-validated only; nothing is ever charged.
type PaymentDetails struct {
	PaymentMethod string `json:"payment_method"`
	CardNumber    string `json:"card_number"`
	ExpiryMonth   string `json:"expiry_month"`
	ExpiryYear    string `json:"expiry_year"`
	CVV           string `json:"cvv"`
}

// PaymentError distinguishes a missing-fields failure from a format failure
// with a specific sub-reason.
type PaymentError struct {
	Missing bool
	Reason  string
}

func (e *PaymentError) Error() string {
	if e.Missing {
		return "Missing required payment fields"
	}
	return "Invalid payment details: " + e.Reason
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ValidatePayment applies the format checks in a fixed order: card number,
// expiry month, expiry vs now, then CVV. The first failure wins.
func ValidatePayment(p PaymentDetails, now time.Time) error {
	if strings.TrimSpace(p.PaymentMethod) == "" ||
		strings.TrimSpace(p.CardNumber) == "" ||
		strings.TrimSpace(p.ExpiryMonth) == "" ||
		strings.TrimSpace(p.ExpiryYear) == "" ||
		strings.TrimSpace(p.CVV) == "" {
		return &PaymentError{Missing: true}
	}

	card := strings.ReplaceAll(strings.ReplaceAll(p.CardNumber, " ", ""), "\t", "")
	if len(card) != 16 || !digitsOnly(card) {
		return &PaymentError{Reason: "Invalid card number"}
	}

	month, err := strconv.Atoi(strings.TrimSpace(p.ExpiryMonth))
	if err != nil || month < 1 || month > 12 {
		return &PaymentError{Reason: "Invalid expiry month"}
	}

	year, err := strconv.Atoi(strings.TrimSpace(p.ExpiryYear))
	if err != nil {
		return &PaymentError{Reason: "Card expired"}
	}
	if year < now.Year() || (year == now.Year() && month < int(now.Month())) {
		return &PaymentError{Reason: "Card expired"}
	}

	cvv := strings.TrimSpace(p.CVV)
	if len(cvv) < 3 || len(cvv) > 4 || !digitsOnly(cvv) {
		return &PaymentError{Reason: "Invalid CVV"}
	}

	return nil
}
