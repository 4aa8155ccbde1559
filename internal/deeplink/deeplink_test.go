package deeplink

import (
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func TestQueryMessage(t *testing.T) {
	p := domain.Product{Name: "Cotton Tee", Category: "best-sellers", Price: decimal.RequireFromString("499")}
	assert.Equal(t, "Hey, I want to know about Cotton Tee - best-sellers - Rs. 499.00", QueryMessage(p))
}

func TestQueryLink(t *testing.T) {
	p := domain.Product{Name: "Silk Scarf & Co", Category: "gift", Price: decimal.RequireFromString("899.5")}

	link := QueryLink("+91 98765-43210", p)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/919876543210", u.Path)
	assert.Equal(t, "Hey, I want to know about Silk Scarf & Co - gift - Rs. 899.50", u.Query().Get("text"))
	assert.Contains(t, link, "?text=Hey%2C%20I%20want")
	assert.NotContains(t, link, "+")
}
