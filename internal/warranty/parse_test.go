package warranty

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmericanStandard(t *testing.T) {
	text := dedent.Dedent(`
		Warranty Summary
		Model# 2TTR2048A1000AA Serial# 5434REB2F
		Residential Base

		Outdoor Coil : Term End Date is 08/18/2016 (10 Years)
		Functional Parts : Term End Date is 08/18/2011 (5 Years)
		Compressor : Term End Date is 08/18/2016 (10 Years)
	`)

	res := parseAmericanStandard(text)

	assert.Equal(t, "Residential Base", res.RegistrationType)
	require.Len(t, res.Components, 3)

	assert.Equal(t, "Outdoor Coil", res.Components[0].Name)
	assert.Equal(t, 10, res.Components[0].TermYears)
	assert.Equal(t, time.Date(2016, 8, 18, 0, 0, 0, 0, time.UTC), res.Components[0].EndDate)

	assert.Equal(t, "Functional Parts", res.Components[1].Name)
	assert.Equal(t, time.Date(2011, 8, 18, 0, 0, 0, 0, time.UTC), res.Components[1].EndDate)

	// Install date derived from the first component: end minus term.
	require.NotNil(t, res.InstallDate)
	assert.Equal(t, time.Date(2006, 8, 18, 0, 0, 0, 0, time.UTC), *res.InstallDate)
}

func TestParseAmericanStandardNothingUseful(t *testing.T) {
	res := parseAmericanStandard("Please enter a serial number to search.")
	assert.True(t, res.Empty())
}

func TestParseCarrier(t *testing.T) {
	// inner_text of the Carrier result table, tooltip icon text included.
	text := dedent.Dedent(`
		Model # N5A5S48AKAWA
		Serial # 1234E56789
		Coil help_outline	10 years	08/07/2035
		Compressor	10 years	08/07/2035
		Parts	5 years	08/07/2030
	`)

	res := parseCarrier(text)

	require.Len(t, res.Components, 3)
	assert.Equal(t, "Coil", res.Components[0].Name)
	assert.Equal(t, 10, res.Components[0].TermYears)
	assert.Equal(t, time.Date(2035, 8, 7, 0, 0, 0, 0, time.UTC), res.Components[0].EndDate)
	assert.Equal(t, "Parts", res.Components[2].Name)
	assert.Equal(t, 5, res.Components[2].TermYears)

	// Install date derived from the longest coverage.
	require.NotNil(t, res.InstallDate)
	assert.Equal(t, time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC), *res.InstallDate)
}

func TestParseCoverageTable(t *testing.T) {
	text := dedent.Dedent(`
		Warranty Status
		Registration Date: 06/15/2020
		Compressor 10 Years 06/15/2030
		Functional Parts 10 Years 06/15/2030
	`)

	res := parseCoverageTable(text)

	require.NotNil(t, res.InstallDate)
	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), *res.InstallDate)
	require.Len(t, res.Components, 2)
	assert.Equal(t, "Compressor", res.Components[0].Name)
}

func TestParseCoverageTableDerivesInstallDate(t *testing.T) {
	res := parseCoverageTable("Compressor 10 Years 06/15/2030")
	require.NotNil(t, res.InstallDate)
	assert.Equal(t, time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC), *res.InstallDate)
}

func TestSnapshotTruncatesOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("garantía®", 500)

	got := snapshot(text)

	assert.LessOrEqual(t, len(got), 4000)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "short", snapshot("  short  "))
}

func TestSiteForKnownHandlers(t *testing.T) {
	for _, h := range []string{"americanstandard", "carrier", "goodman", "lennox"} {
		site, ok := SiteFor(h)
		require.True(t, ok, h)
		assert.Equal(t, h, site.Handler)
		assert.NotEmpty(t, site.URL)
		assert.NotEmpty(t, site.Host)
		assert.NotEmpty(t, site.SerialSelectors)
		assert.NotNil(t, site.Parse)
	}

	_, ok := SiteFor("rheem")
	assert.False(t, ok)
}
