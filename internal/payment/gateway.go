package payment

import (
	"fmt"
	"net/url"
	"strings"
)

// Outcome classifies a gateway callback navigation.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeCancel  Outcome = "CANCEL"
	OutcomeError   Outcome = "ERROR"
	OutcomeUnknown Outcome = "UNKNOWN"
)

// Gateway builds redirect checkout URLs for an external payment provider and
// classifies the callback URLs the provider redirects back to.
//
// The provider settles payment entirely on its side; completion is detected
// by the callback path alone. No server-side receipt verification happens
// here, matching the upstream integration; see DESIGN.md before relying on
// OutcomeSuccess for anything money-critical.
type Gateway struct {
	gatewayURL  string
	merchantID  string
	callbackURL string
}

// NewGateway creates a payment gateway adapter.
func NewGateway(gatewayURL, merchantID, callbackURL string) *Gateway {
	return &Gateway{
		gatewayURL:  gatewayURL,
		merchantID:  merchantID,
		callbackURL: strings.TrimRight(callbackURL, "/"),
	}
}

// CheckoutURL constructs the redirect URL for paying a booking.
// reference is the ride request ID; amount is in Rand.
func (g *Gateway) CheckoutURL(reference string, amount float64) string {
	q := url.Values{}
	q.Set("merchant_id", g.merchantID)
	q.Set("amount", fmt.Sprintf("%.2f", amount))
	q.Set("item_name", "Booking "+reference)
	q.Set("m_payment_id", reference)
	q.Set("return_url", g.callbackURL+"/success")
	q.Set("cancel_url", g.callbackURL+"/cancel")
	q.Set("notify_url", g.callbackURL+"/error")

	return g.gatewayURL + "?" + q.Encode()
}

// ClassifyCallback maps a callback URL back to an outcome by its last path
// segment. Unrecognised URLs classify as OutcomeUnknown.
func (g *Gateway) ClassifyCallback(rawURL string) Outcome {
	u, err := url.Parse(rawURL)
	if err != nil {
		return OutcomeUnknown
	}

	switch {
	case strings.HasSuffix(u.Path, "/success"):
		return OutcomeSuccess
	case strings.HasSuffix(u.Path, "/cancel"):
		return OutcomeCancel
	case strings.HasSuffix(u.Path, "/error"):
		return OutcomeError
	}
	return OutcomeUnknown
}
