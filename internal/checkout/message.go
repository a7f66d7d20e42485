package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-backend/internal/cart"
)

const waBaseURL = "https://wa.me/"

// ComposeMessage renders the order summary sent to the shop over WhatsApp.
func ComposeMessage(c *cart.Cart, customer Customer) string {
	customer = customer.normalized()

	var b strings.Builder
	b.WriteString("🛒 *New Wholesale Order*\n\n")
	b.WriteString("*Customer Details:*\n")
	fmt.Fprintf(&b, "Name: %s\n", customer.Name)
	fmt.Fprintf(&b, "Phone: %s\n", customer.Phone)
	fmt.Fprintf(&b, "Email: %s\n", customer.Email)
	fmt.Fprintf(&b, "Address: %s\n\n", customer.Address)

	b.WriteString("*Order Details:*\n")
	for _, line := range c.Lines() {
		fmt.Fprintf(&b, "• %s - Qty: %d - ₹%s\n", line.Name, line.Quantity, FormatAmount(line.Subtotal()))
	}
	fmt.Fprintf(&b, "\n*Total Amount: ₹%s*\n\n", FormatAmount(c.Total()))

	if customer.Notes != "" {
		fmt.Fprintf(&b, "*Additional Notes:*\n%s\n\n", customer.Notes)
	}
	b.WriteString("Please confirm this order and provide delivery details.")
	return b.String()
}

// DeepLink builds the wa.me link that opens a chat with number prefilled
// with message. Non-digits are stripped from number.
func DeepLink(number, message string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return waBaseURL + digits.String() + "?text=" + escaped
}

// FormatAmount renders an amount with comma thousands separators and at most
// two decimals, dropping trailing zeros.
func FormatAmount(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	text := rounded.StringFixed(2)
	intPart, frac, _ := strings.Cut(text, ".")
	frac = strings.TrimRight(frac, "0")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	if frac != "" {
		return sign + grouped.String() + "." + frac
	}
	return sign + grouped.String()
}
