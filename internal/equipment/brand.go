package equipment

import "strings"

// Handler ids for the warranty lookup sites. Trane units are looked up on
// American Standard's portal (same parent company, and their portal is the
// one that works reliably).
const (
	HandlerAmericanStandard = "americanstandard"
	HandlerCarrier          = "carrier"
	HandlerGoodman          = "goodman"
	HandlerLennox           = "lennox"
)

// brandAliases maps lowercase substrings of a manufacturer string to a
// handler id. The Carrier group includes the ICP family brands that
// Carrier's portal covers.
var brandAliases = []struct {
	alias   string
	handler string
}{
	{"american standard", HandlerAmericanStandard},
	{"trane", HandlerAmericanStandard},
	{"carrier", HandlerCarrier},
	{"bryant", HandlerCarrier},
	{"payne", HandlerCarrier},
	{"heil", HandlerCarrier},
	{"tempstar", HandlerCarrier},
	{"comfortmaker", HandlerCarrier},
	{"day & night", HandlerCarrier},
	{"arcoaire", HandlerCarrier},
	{"keeprite", HandlerCarrier},
	{"goodman", HandlerGoodman},
	{"amana", HandlerGoodman},
	{"lennox", HandlerLennox},
}

// ResolveBrand maps a manufacturer string, possibly with case variation or
// OCR noise, to a warranty handler id. Returns "" and false when no handler
// covers the brand, or when the string somehow matches more than one
// handler's alias group (we refuse to guess).
func ResolveBrand(manufacturer string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(manufacturer))
	if m == "" {
		return "", false
	}

	matched := ""
	for _, a := range brandAliases {
		if !strings.Contains(m, a.alias) {
			continue
		}
		if matched != "" && matched != a.handler {
			return "", false
		}
		matched = a.handler
	}
	if matched == "" {
		return "", false
	}
	return matched, true
}
