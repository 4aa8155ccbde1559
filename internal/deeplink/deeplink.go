// Package deeplink builds the pre-filled chat link behind "query this
// product".
package deeplink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

const baseURL = "https://wa.me/"

// QueryLink returns the wa.me link for number with a message asking about p.
// Non-digit characters in number are dropped. Spaces encode as %20.
func QueryLink(number string, p domain.Product) string {
	text := strings.ReplaceAll(url.QueryEscape(QueryMessage(p)), "+", "%20")
	return baseURL + digits(number) + "?text=" + text
}

// QueryMessage is the text pre-filled in the chat.
func QueryMessage(p domain.Product) string {
	return fmt.Sprintf("Hey, I want to know about %s - %s - Rs. %s", p.Name, p.Category, p.Price.StringFixed(2))
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
