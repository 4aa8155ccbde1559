package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name. Category labels
// shown to shoppers map onto the category tokens stored with products.
//
// Examples:
//   - "New Arrivals" → "new-arrivals"
//   - "  Best_Sellers " → "best-sellers"
//   - "Café Gift!" → "cafe-gift"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ä", "a",
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"í", "i", "î", "i", "ï", "i",
		"ó", "o", "ô", "o", "ö", "o",
		"ú", "u", "û", "u", "ü", "u",
		"ç", "c", "ñ", "n",
	)
	s = replacer.Replace(s)

	// Anything that is not a letter or digit becomes a single hyphen.
	s = slugRegexp.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
