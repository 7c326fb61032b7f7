package warranty

import (
	"time"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// Site parameterizes the shared lookup driver for one manufacturer portal.
// Handlers differ only in target URL, form selectors, and page-structure
// rules; the control flow and failure taxonomy are the driver's.
type Site struct {
	// Handler is the id the brand resolver dispatches on.
	Handler string
	// Name is the portal's display name for logs and reports.
	Name string
	// Host keys the per-host rate limiter.
	Host string
	// URL is the warranty lookup page.
	URL string

	// SerialSelectors are tried in order to find the serial input.
	SerialSelectors []string
	// ModelSelector locates the model input when the form has one. Model is
	// advisory; a missing model input is not an error.
	ModelSelector string
	// SubmitSelectors and SubmitTexts locate the search/submit button, by
	// CSS selector first, then by button text.
	SubmitSelectors []string
	SubmitTexts     []string
	// ModalTexts are button labels used to dismiss an interstitial modal.
	ModalTexts []string
	// CookieSelector dismisses the cookie consent banner when present.
	CookieSelector string
	// PreSubmitSelectors are clicked after filling the form, before submit
	// (e.g. Carrier's "original purchaser" radio).
	PreSubmitSelectors []string

	// ResultWait is how long to let the result render after submitting.
	ResultWait time.Duration

	// NotFoundMarkers classify a served page with no record for the serial.
	NotFoundMarkers []string
	// ThrottleMarkers classify anti-bot blocks.
	ThrottleMarkers []string

	// Parse extracts warranty data from the result page text.
	Parse func(text string) ParseResult
}

// commonThrottleMarkers show up across vendors' CDN/anti-bot layers.
var commonThrottleMarkers = []string{
	"access denied",
	"too many requests",
	"verify you are a human",
	"captcha",
	"request blocked",
}

var sites = map[string]Site{
	equipment.HandlerAmericanStandard: {
		Handler: equipment.HandlerAmericanStandard,
		Name:    "American Standard",
		Host:    "www.americanstandardair.com",
		URL:     "https://www.americanstandardair.com/resources/warranty-and-registration/lookup/",
		SerialSelectors: []string{
			"#serialNumber",
			"input[name='serialNumber']",
			"input[type='text']",
		},
		SubmitSelectors: []string{"button[type='submit']"},
		SubmitTexts:     []string{"search", "look"},
		ModalTexts:      []string{"next", "continue", "close", "i understand"},
		CookieSelector:  "#onetrust-accept-btn-handler",
		ResultWait:      3 * time.Second,
		NotFoundMarkers: []string{
			"no warranty information was found",
			"serial number not found",
			"unable to locate",
		},
		ThrottleMarkers: commonThrottleMarkers,
		Parse:           parseAmericanStandard,
	},
	equipment.HandlerCarrier: {
		Handler: equipment.HandlerCarrier,
		Name:    "Carrier",
		Host:    "www.carrier.com",
		URL:     "https://www.carrier.com/residential/en/us/warranty-lookup/",
		SerialSelectors: []string{
			"#serialNumber",
			"input[name='serialNumber']",
		},
		SubmitSelectors:    []string{"#btnSubmit", "input[type='submit']"},
		SubmitTexts:        []string{"submit"},
		CookieSelector:     "#onetrust-accept-btn-handler",
		PreSubmitSelectors: []string{"#isOriginal1", "label[for='isOriginal1']"},
		ResultWait:         4 * time.Second,
		NotFoundMarkers: []string{
			"not found",
			"no warranty",
		},
		ThrottleMarkers: commonThrottleMarkers,
		Parse:           parseCarrier,
	},
	equipment.HandlerGoodman: {
		Handler: equipment.HandlerGoodman,
		Name:    "Goodman",
		Host:    "www.goodmanmfg.com",
		URL:     "https://www.goodmanmfg.com/support/warranty-lookup",
		SerialSelectors: []string{
			"#serialNumber",
			"input[name='serialNumber']",
			"input[name='SerialNumber']",
		},
		ModelSelector:   "input[name='modelNumber']",
		SubmitSelectors: []string{"button[type='submit']"},
		SubmitTexts:     []string{"search", "submit"},
		CookieSelector:  "#onetrust-accept-btn-handler",
		ResultWait:      3 * time.Second,
		NotFoundMarkers: []string{
			"no results",
			"not found",
			"could not be located",
		},
		ThrottleMarkers: commonThrottleMarkers,
		Parse:           parseCoverageTable,
	},
	equipment.HandlerLennox: {
		Handler: equipment.HandlerLennox,
		Name:    "Lennox",
		Host:    "www.lennox.com",
		URL:     "https://www.lennox.com/owners/warranty/warranty-lookup",
		SerialSelectors: []string{
			"#serialNumber",
			"input[name='serialNumber']",
			"input[type='text']",
		},
		SubmitSelectors: []string{"button[type='submit']"},
		SubmitTexts:     []string{"search", "check warranty"},
		CookieSelector:  "#onetrust-accept-btn-handler",
		ResultWait:      3 * time.Second,
		NotFoundMarkers: []string{
			"no warranty found",
			"not found",
			"no equipment",
		},
		ThrottleMarkers: commonThrottleMarkers,
		Parse:           parseCoverageTable,
	},
}

// SiteFor returns the site definition for a handler id from the brand
// resolver.
func SiteFor(handler string) (Site, bool) {
	s, ok := sites[handler]
	return s, ok
}

// Handlers lists the registered handler ids.
func Handlers() []string {
	out := make([]string, 0, len(sites))
	for h := range sites {
		out = append(out, h)
	}
	return out
}
