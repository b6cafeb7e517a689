package visits

import (
	"strings"
	"sync"

	"github.com/pariz/gountries"
)

var countryQuery = sync.OnceValue(gountries.New)

// NormalizeCountry resolves an ISO alpha-2 code, alpha-3 code or common
// English name to an upper-case alpha-2 code. ok is false for unknown input.
func NormalizeCountry(value string) (code string, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}

	query := countryQuery()
	if len(value) <= 3 {
		if country, err := query.FindCountryByAlpha(strings.ToUpper(value)); err == nil {
			return strings.ToUpper(country.Codes.Alpha2), true
		}
	}
	if country, err := query.FindCountryByName(value); err == nil {
		return strings.ToUpper(country.Codes.Alpha2), true
	}
	return "", false
}
