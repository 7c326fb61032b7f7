package report

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

// traneRecord is the worked example from the README: a 2005 Trane XR with a
// registered-base warranty that fully expired in 2016.
func traneRecord() *equipment.Record {
	rec := &equipment.Record{
		Manufacturer:    "Trane",
		ModelLine:       "XR",
		Model:           "2TTR2048A1000AA",
		Serial:          "5434REB2F",
		Type:            "Air Conditioner",
		ManufactureDate: ptr(date(2005, 10, 1)),
		Tonnage:         ptr(4.0),
		Refrigerant:     "R-22",
		ChargeLbs:       ptr(7.0),
		ChargeOz:        ptr(8.0),
		Volts:           "208/230V",
		Phase:           ptr(1),
		Hz:              ptr(60),
		Warranty: equipment.Warranty{
			Status:           equipment.StatusFound,
			InstallDate:      ptr(date(2006, 8, 18)),
			RegistrationType: "Residential Base",
			Components: []equipment.Coverage{
				{Name: "Outdoor Coil", TermYears: 10, EndDate: date(2016, 8, 18)},
				{Name: "Functional Parts", TermYears: 5, EndDate: date(2011, 8, 18)},
				{Name: "Compressor", TermYears: 10, EndDate: date(2016, 8, 18)},
			},
		},
	}
	rec.ResolveInstallDate()
	return rec
}

func alertCategories(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Category
	}
	return out
}

func TestDeriveAlertsAllFourExactly(t *testing.T) {
	// R-22, 19 years old, everything expired, SEER 12: exactly the four
	// alert categories, no more, no fewer.
	rec := traneRecord()
	rec.SEER = ptr(12.0)
	now := date(2025, 8, 18)

	alerts := DeriveAlerts(rec, DefaultThresholds(), now)

	assert.ElementsMatch(t,
		[]string{AlertRefrigerant, AlertAge, AlertWarrantyExpired, AlertEfficiency},
		alertCategories(alerts))

	bySeverity := map[string]Severity{}
	for _, a := range alerts {
		bySeverity[a.Category] = a.Severity
	}
	assert.Equal(t, SeverityHigh, bySeverity[AlertRefrigerant])
	assert.Equal(t, SeverityHigh, bySeverity[AlertAge])
	assert.Equal(t, SeverityHigh, bySeverity[AlertWarrantyExpired])
	assert.Equal(t, SeverityMedium, bySeverity[AlertEfficiency])
}

func TestDeriveAlertsHealthyUnit(t *testing.T) {
	rec := &equipment.Record{
		Manufacturer: "Carrier",
		Refrigerant:  "R-410A",
		SEER:         ptr(16.0),
		InstallDate:  ptr(date(2022, 5, 1)),
		Warranty: equipment.Warranty{
			Status: equipment.StatusFound,
			Components: []equipment.Coverage{
				{Name: "Compressor", TermYears: 10, EndDate: date(2032, 5, 1)},
			},
		},
	}

	alerts := DeriveAlerts(rec, DefaultThresholds(), date(2025, 8, 1))
	assert.Empty(t, alerts)
}

func TestDeriveAlertsNoWarrantyDataNoExpiredAlert(t *testing.T) {
	// A failed lookup must not masquerade as "all warranties expired".
	rec := traneRecord()
	rec.Warranty = equipment.Warranty{Status: equipment.StatusSerialNotFound}
	rec.InstallDate = ptr(date(2006, 8, 18))

	alerts := DeriveAlerts(rec, DefaultThresholds(), date(2025, 8, 18))
	assert.NotContains(t, alertCategories(alerts), AlertWarrantyExpired)
}

func TestDiscontinuedRefrigerantMatching(t *testing.T) {
	assert.True(t, isDiscontinuedRefrigerant("R-22"))
	assert.True(t, isDiscontinuedRefrigerant("r22"))
	assert.True(t, isDiscontinuedRefrigerant("R-22, 7lb 8oz"))
	assert.False(t, isDiscontinuedRefrigerant("R-410A"))
	assert.False(t, isDiscontinuedRefrigerant("R-224")) // no prefix matches
	assert.False(t, isDiscontinuedRefrigerant(""))
}

func TestAssembleWorkedExample(t *testing.T) {
	rec := traneRecord()
	now := date(2025, 8, 18)

	out := NewAssembler(Thresholds{}).Assemble(rec, now)

	assert.Equal(t, "2006-08-18T00:00:00Z", out.Payload.InstalledOn)
	assert.Equal(t, "2006-08-18T00:00:00Z", out.Payload.ManufacturerWarrantyStart)
	assert.Equal(t, "2016-08-18T00:00:00Z", out.Payload.ManufacturerWarrantyEnd)
	assert.Equal(t, "Trane XR", out.Payload.Name)
	assert.Equal(t, "Air Conditioner", out.Payload.Type)
	assert.Equal(t, "Installed", out.Payload.Status)

	// SEER not on the plate: refrigerant, age and warranty alerts only.
	assert.ElementsMatch(t,
		[]string{AlertRefrigerant, AlertAge, AlertWarrantyExpired},
		alertCategories(out.Alerts))

	assert.Contains(t, out.Payload.Memo, "Refrigerant: R-22 (7lb 8oz)")
	assert.Contains(t, out.Payload.Memo, "Replacement candidate: yes")
	assert.Contains(t, out.Report, "Outdoor Coil")
	assert.Contains(t, out.Report, "expired")
}

func TestAssembleLookupFailedStillProducesOutput(t *testing.T) {
	rec := &equipment.Record{
		Manufacturer: "Trane",
		Model:        "2TTR2048A1000AA",
		Serial:       "5434REB2F",
		Type:         "Air Conditioner",
		Warranty:     equipment.Warranty{Status: equipment.StatusSerialNotFound},
	}

	out := NewAssembler(Thresholds{}).Assemble(rec, date(2025, 8, 18))

	require.NotEmpty(t, out.Report)
	assert.Contains(t, out.Report, "warranty data unavailable")
	assert.Contains(t, out.Report, "no record for this serial")

	// No fabricated dates.
	assert.Empty(t, out.Payload.InstalledOn)
	assert.Empty(t, out.Payload.ManufacturerWarrantyStart)
	assert.Empty(t, out.Payload.ManufacturerWarrantyEnd)
	assert.Equal(t, "5434REB2F", out.Payload.SerialNumber)
}

func TestAssembleIdempotent(t *testing.T) {
	rec := traneRecord()
	rec.SEER = ptr(12.0)
	now := date(2025, 8, 18)
	a := NewAssembler(Thresholds{})

	first := a.Assemble(rec, now)
	second := a.Assemble(rec, now)

	assert.Equal(t, first.Report, second.Report)
	assert.Equal(t, first.Payload, second.Payload)
	assert.Equal(t, first.Alerts, second.Alerts)
}

func TestAssembleApproximatedInstallDateIsMarked(t *testing.T) {
	rec := &equipment.Record{
		Manufacturer:    "Goodman",
		Serial:          "0807123456",
		ManufactureDate: ptr(date(2008, 7, 1)),
		Warranty:        equipment.Warranty{Status: equipment.StatusSerialNotFound},
	}
	rec.ResolveInstallDate()

	out := NewAssembler(Thresholds{}).Assemble(rec, date(2025, 8, 18))

	assert.Contains(t, out.Report, "approximated from manufacture date")
	assert.Equal(t, "2008-10-01T00:00:00Z", out.Payload.InstalledOn)
	// Approximated install date is not warranty data.
	assert.Empty(t, out.Payload.ManufacturerWarrantyStart)
}

func TestBuildMemoTruncatesOnRuneBoundary(t *testing.T) {
	// Degree signs and other multi-byte characters do show up in scraped
	// portal text; the memo cap must not cut one in half.
	// "Refrigerant: " is 13 bytes, so the 500-byte cap lands mid-°.
	rec := &equipment.Record{
		Refrigerant: strings.Repeat("°", 400),
		Warranty:    equipment.Warranty{Status: equipment.StatusFound},
	}

	memo := buildMemo(rec, nil)

	assert.Less(t, len(memo), memoMaxLen)
	assert.True(t, utf8.ValidString(memo))
}

func TestSummaryLine(t *testing.T) {
	rec := traneRecord()
	line := SummaryLine(rec, date(2025, 8, 18))

	assert.True(t, strings.HasPrefix(line, "• Trane - 4-Ton Air Conditioner"))
	assert.Contains(t, line, "Serial: 5434REB2F")
	assert.Contains(t, line, "Registered - Warranty expired 2016-08-18")
}

func TestSummaryLineUnknownWarranty(t *testing.T) {
	rec := &equipment.Record{Type: "Heat Pump", Serial: "ABC123"}
	line := SummaryLine(rec, date(2025, 8, 18))
	assert.Contains(t, line, "Warranty status unknown")
}
