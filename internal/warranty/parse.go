package warranty

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// ParseResult is what a site's page-structure rules extract from the result
// page text. An empty result (no components, no install date) means the
// expected structure was not on the page.
type ParseResult struct {
	InstallDate      *time.Time
	RegistrationType string
	Components       []equipment.Coverage
}

// Empty reports whether nothing recognizable was extracted.
func (p ParseResult) Empty() bool {
	return p.InstallDate == nil && len(p.Components) == 0
}

// parseDate parses M/D/YYYY dates as the portals print them.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("1/2/2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// American Standard prints each coverage as
// "Outdoor Coil : Term End Date is 08/18/2016 (10 Years)".
var asComponentRe = regexp.MustCompile(`([A-Za-z][A-Za-z ]*?)\s*:\s*Term End Date is\s*(\d{1,2}/\d{1,2}/\d{4})\s*\((\d+)\s*Years?\)`)

// parseAmericanStandard extracts coverage from the American Standard
// warranty document. The install date is derived from the first component:
// term end minus term years.
func parseAmericanStandard(text string) ParseResult {
	var res ParseResult

	if strings.Contains(text, "Residential Extended") {
		res.RegistrationType = "Residential Extended"
	} else if strings.Contains(text, "Residential Base") {
		res.RegistrationType = "Residential Base"
	}

	for _, m := range asComponentRe.FindAllStringSubmatch(text, -1) {
		end, ok := parseDate(m[2])
		if !ok {
			continue
		}
		years, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		res.Components = append(res.Components, equipment.Coverage{
			Name:      strings.TrimSpace(m[1]),
			TermYears: years,
			EndDate:   end,
		})
		if res.InstallDate == nil {
			install := end.AddDate(-years, 0, 0)
			res.InstallDate = &install
		}
	}
	return res
}

// Carrier renders a coverage table like
// "Coil help_outline	10 years	08/07/2035" (help_outline is the tooltip
// icon's text node leaking into inner_text).
var carrierComponentRe = regexp.MustCompile(`(?i)(Coil TIN|Coil|Compressor|Enhanced Parts Warranty|Heat Exchanger|Functional Parts|Parts|Labor)\s*(?:help_outline)?\s+(\d+)\s*years?\s+(\d{1,2}/\d{1,2}/\d{4})`)

// parseCarrier extracts coverage from Carrier's result page. The install
// date is derived from the longest coverage: end date minus term years.
func parseCarrier(text string) ParseResult {
	var res ParseResult

	longestYears := 0
	var longestEnd time.Time
	for _, m := range carrierComponentRe.FindAllStringSubmatch(text, -1) {
		end, ok := parseDate(m[3])
		if !ok {
			continue
		}
		years, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		res.Components = append(res.Components, equipment.Coverage{
			Name:      strings.TrimSpace(m[1]),
			TermYears: years,
			EndDate:   end,
		})
		if years > longestYears {
			longestYears = years
			longestEnd = end
		}
	}
	if longestYears > 0 {
		install := longestEnd.AddDate(-longestYears, 0, 0)
		res.InstallDate = &install
	}
	return res
}

// Goodman and Lennox both render a component/term/expiration table; the
// generic rules below accept that common layout plus an explicit install or
// registration date line when the portal prints one.
var (
	tableComponentRe = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z /]*?)\s+(\d+)\s*Years?\s*[-:]?\s*(\d{1,2}/\d{1,2}/\d{4})`)
	installDateRe    = regexp.MustCompile(`(?i)(?:Install(?:ation|ed)?|Registration)\s*Date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
)

func parseCoverageTable(text string) ParseResult {
	var res ParseResult

	if m := installDateRe.FindStringSubmatch(text); m != nil {
		if d, ok := parseDate(m[1]); ok {
			res.InstallDate = &d
		}
	}

	for _, m := range tableComponentRe.FindAllStringSubmatch(text, -1) {
		end, ok := parseDate(m[3])
		if !ok {
			continue
		}
		years, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		res.Components = append(res.Components, equipment.Coverage{
			Name:      strings.TrimSpace(m[1]),
			TermYears: years,
			EndDate:   end,
		})
	}

	// No explicit install date on the page: derive from the first component.
	if res.InstallDate == nil && len(res.Components) > 0 {
		c := res.Components[0]
		install := c.EndDate.AddDate(-c.TermYears, 0, 0)
		res.InstallDate = &install
	}
	return res
}

// containsAny reports whether the lowercased text contains any marker.
func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// snapshot truncates page text for the record's raw-text audit field,
// without splitting a multi-byte rune at the cut.
func snapshot(text string) string {
	const max = 4000
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
