package payment

import (
	"net/url"
	"testing"
)

func TestCheckoutURL(t *testing.T) {
	gateway := NewGateway("https://sandbox.payfast.co.za/eng/process", "10000100", "https://api.example.com/v1/payments/callback/")

	raw := gateway.CheckoutURL("req-1", 237.5)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("checkout URL does not parse: %v", err)
	}
	if u.Host != "sandbox.payfast.co.za" {
		t.Errorf("host = %s", u.Host)
	}

	q := u.Query()
	if got := q.Get("merchant_id"); got != "10000100" {
		t.Errorf("merchant_id = %q", got)
	}
	if got := q.Get("amount"); got != "237.50" {
		t.Errorf("amount = %q, want 237.50", got)
	}
	if got := q.Get("m_payment_id"); got != "req-1" {
		t.Errorf("m_payment_id = %q", got)
	}
	if got := q.Get("return_url"); got != "https://api.example.com/v1/payments/callback/success" {
		t.Errorf("return_url = %q", got)
	}
	if got := q.Get("cancel_url"); got != "https://api.example.com/v1/payments/callback/cancel" {
		t.Errorf("cancel_url = %q", got)
	}
}

func TestClassifyCallback(t *testing.T) {
	gateway := NewGateway("https://sandbox.payfast.co.za/eng/process", "10000100", "https://api.example.com/cb")

	cases := []struct {
		url  string
		want Outcome
	}{
		{"https://api.example.com/cb/success", OutcomeSuccess},
		{"https://api.example.com/cb/cancel", OutcomeCancel},
		{"https://api.example.com/cb/error", OutcomeError},
		{"/v1/payments/callback/success", OutcomeSuccess},
		{"https://api.example.com/cb/other", OutcomeUnknown},
		{"://bad", OutcomeUnknown},
	}

	for _, tc := range cases {
		if got := gateway.ClassifyCallback(tc.url); got != tc.want {
			t.Errorf("ClassifyCallback(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}
