// Package report turns a finalized equipment record into the two output
// artifacts: a human-readable report for the office and a ServiceTitan
// equipment payload. Pure transformation; assembling the same record with
// the same clock twice produces byte-identical output.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/christmasair/plate-scanner/internal/servicetitan"
)

// Output is everything the assembler produces for one equipment record.
type Output struct {
	Report  string
	Payload servicetitan.EquipmentPayload
	Alerts  []Alert
}

// Assembler builds reports and payloads from equipment records.
type Assembler struct {
	thresholds Thresholds
}

// NewAssembler creates an assembler. Zero thresholds get defaults.
func NewAssembler(th Thresholds) *Assembler {
	if th.LifespanYears <= 0 {
		th.LifespanYears = DefaultThresholds().LifespanYears
	}
	if th.MinSEER <= 0 {
		th.MinSEER = DefaultThresholds().MinSEER
	}
	return &Assembler{thresholds: th}
}

// Assemble produces the report and payload for a record as of now. The
// record may be partial: a failed or absent warranty lookup still yields a
// complete report that says what is missing and why.
func (a *Assembler) Assemble(rec *equipment.Record, now time.Time) Output {
	alerts := DeriveAlerts(rec, a.thresholds, now)
	return Output{
		Report:  a.renderReport(rec, alerts, now),
		Payload: a.buildPayload(rec, alerts),
		Alerts:  alerts,
	}
}

const missing = "(not available)"

func fmtDate(t *time.Time) string {
	if t == nil {
		return missing
	}
	return t.Format("2006-01-02")
}

func orMissing(s string) string {
	if s == "" {
		return missing
	}
	return s
}

// capacityLine formats tonnage/BTU the way techs talk about it.
func capacityLine(rec *equipment.Record) string {
	if rec.Tonnage == nil && rec.CapacityBTU == nil {
		return missing
	}
	var parts []string
	if rec.Tonnage != nil {
		parts = append(parts, fmt.Sprintf("%g tons", *rec.Tonnage))
	}
	if rec.CapacityBTU != nil {
		parts = append(parts, fmt.Sprintf("%d BTU", *rec.CapacityBTU))
	}
	return strings.Join(parts, ", ")
}

func refrigerantLine(rec *equipment.Record) string {
	if rec.Refrigerant == "" {
		return missing
	}
	line := rec.Refrigerant
	if rec.ChargeLbs != nil || rec.ChargeOz != nil {
		var lbs, oz float64
		if rec.ChargeLbs != nil {
			lbs = *rec.ChargeLbs
		}
		if rec.ChargeOz != nil {
			oz = *rec.ChargeOz
		}
		line += fmt.Sprintf(" (%glb %goz)", lbs, oz)
	}
	return line
}

func electricalLine(rec *equipment.Record) string {
	if rec.Volts == "" && rec.Phase == nil && rec.Hz == nil {
		return missing
	}
	var parts []string
	if rec.Volts != "" {
		parts = append(parts, rec.Volts)
	}
	if rec.Phase != nil {
		parts = append(parts, fmt.Sprintf("%d-phase", *rec.Phase))
	}
	if rec.Hz != nil {
		parts = append(parts, fmt.Sprintf("%dHz", *rec.Hz))
	}
	return strings.Join(parts, ", ")
}

// lookupFailureReason explains a non-found lookup status in report language.
func lookupFailureReason(w equipment.Warranty) string {
	switch w.Status {
	case equipment.StatusInsufficientData:
		return "lookup skipped: manufacturer or serial number missing from the plate"
	case equipment.StatusUnsupportedBrand:
		return "lookup skipped: no supported warranty portal for this brand"
	case equipment.StatusSiteUnreachable:
		return "lookup failed: manufacturer site unreachable"
	case equipment.StatusSerialNotFound:
		return "lookup found no record for this serial (common for older, unregistered units)"
	case equipment.StatusFormChanged:
		return "lookup failed: manufacturer site layout changed"
	case equipment.StatusRateLimited:
		return "lookup failed: manufacturer site blocked automated access"
	case equipment.StatusTimeout:
		return "lookup failed: manufacturer site did not respond in time"
	default:
		return "no lookup attempted"
	}
}

func (a *Assembler) renderReport(rec *equipment.Record, alerts []Alert, now time.Time) string {
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("EQUIPMENT SCAN REPORT")
	line("=====================")
	line("")
	line("EQUIPMENT")
	line("  Manufacturer:   %s", orMissing(rec.Manufacturer))
	line("  Model line:     %s", orMissing(rec.ModelLine))
	line("  Model number:   %s", orMissing(rec.Model))
	line("  Serial number:  %s", orMissing(rec.Serial))
	line("  Type:           %s", orMissing(rec.Type))
	line("  Manufactured:   %s", fmtDate(rec.ManufactureDate))
	installed := fmtDate(rec.InstallDate)
	if rec.InstallDate != nil && rec.InstallApproximated {
		installed += " (approximated from manufacture date)"
	}
	line("  Installed:      %s", installed)
	if age := rec.AgeYears(now); age != nil {
		line("  Age:            %.1f years", *age)
	} else {
		line("  Age:            %s", missing)
	}
	line("  Capacity:       %s", capacityLine(rec))
	line("  Refrigerant:    %s", refrigerantLine(rec))
	line("  Electrical:     %s", electricalLine(rec))
	if rec.SEER != nil {
		line("  SEER:           %.1f", *rec.SEER)
	} else {
		line("  SEER:           %s", missing)
	}
	line("")

	line("WARRANTY")
	if rec.Warranty.Status == equipment.StatusFound {
		line("  Status:         warranty record found")
		if rec.Warranty.RegistrationType != "" {
			line("  Registration:   %s", rec.Warranty.RegistrationType)
		}
		for _, c := range rec.Warranty.Components {
			state := "active"
			if c.Expired(now) {
				state = "expired"
			}
			line("  %-15s ends %s (%d yr, %s)", c.Name+":", c.EndDate.Format("2006-01-02"), c.TermYears, state)
		}
	} else {
		line("  Status:         warranty data unavailable")
		line("  Reason:         %s", lookupFailureReason(rec.Warranty))
	}
	line("")

	line("ALERTS")
	if len(alerts) == 0 {
		line("  none")
	} else {
		for _, al := range alerts {
			line("  [%s] %s", strings.ToUpper(string(al.Severity)), al.Message)
		}
	}

	return b.String()
}

// memoMaxLen matches ServiceTitan's memo field limit.
const memoMaxLen = 500

// buildMemo produces the deterministic memo summary: capacity, refrigerant,
// electrical, coverage recap, replacement candidacy.
func buildMemo(rec *equipment.Record, alerts []Alert) string {
	var parts []string

	if c := capacityLine(rec); c != missing {
		parts = append(parts, "Capacity: "+c)
	}
	if r := refrigerantLine(rec); r != missing {
		parts = append(parts, "Refrigerant: "+r)
	}
	if e := electricalLine(rec); e != missing {
		parts = append(parts, "Electrical: "+e)
	}

	if len(rec.Warranty.Components) > 0 {
		var notes []string
		for i, c := range rec.Warranty.Components {
			if i == 3 {
				break
			}
			notes = append(notes, fmt.Sprintf("%s %s (%dyr)", c.Name, c.EndDate.Format("2006-01-02"), c.TermYears))
		}
		parts = append(parts, "Warranty: "+strings.Join(notes, ", "))
	} else if rec.Warranty.Status.Terminal() {
		parts = append(parts, "Warranty: unavailable ("+string(rec.Warranty.Status)+")")
	}

	if ReplacementCandidate(alerts) {
		parts = append(parts, "Replacement candidate: yes")
	}

	memo := strings.Join(parts, " | ")
	if len(memo) > memoMaxLen {
		// Trim to a rune boundary so the cut never splits a multi-byte
		// character.
		cut := memoMaxLen
		for cut > 0 && !utf8.RuneStart(memo[cut]) {
			cut--
		}
		memo = memo[:cut]
	}
	return memo
}

func rfc3339Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func (a *Assembler) buildPayload(rec *equipment.Record, alerts []Alert) servicetitan.EquipmentPayload {
	name := strings.TrimSpace(rec.Manufacturer + " " + rec.ModelLine)
	if rec.ModelLine == "" && rec.Model != "" {
		short := rec.Model
		if len(short) > 10 {
			short = short[:10]
		}
		name = strings.TrimSpace(rec.Manufacturer + " " + short)
	}
	if name == "" {
		name = "Unknown Equipment"
	}

	p := servicetitan.EquipmentPayload{
		Name:         name,
		Manufacturer: rec.Manufacturer,
		Model:        rec.Model,
		SerialNumber: rec.Serial,
		Capacity:     "",
		InstalledOn:  rfc3339Date(rec.InstallDate),
		Memo:         buildMemo(rec, alerts),
		Status:       "Installed",
	}
	if rec.Type != "" && rec.Type != "Other" {
		p.Type = rec.Type
	}
	if c := capacityLine(rec); c != missing {
		p.Capacity = c
	}

	// Warranty dates only when the lookup actually produced them; absent
	// dates stay absent rather than being fabricated from guesses.
	if rec.Warranty.Status == equipment.StatusFound {
		p.ManufacturerWarrantyStart = rfc3339Date(rec.Warranty.InstallDate)
		p.ManufacturerWarrantyEnd = rfc3339Date(rec.Warranty.LatestEnd())
	}

	return p
}

// SummaryLine formats one equipment record for appending to a ServiceTitan
// job summary: type + capacity, serial, warranty standing.
func SummaryLine(rec *equipment.Record, now time.Time) string {
	desc := rec.Type
	if desc == "" {
		desc = "Equipment"
	}
	if rec.Tonnage != nil {
		desc = fmt.Sprintf("%g-Ton %s", *rec.Tonnage, desc)
	}
	if rec.Manufacturer != "" {
		desc = rec.Manufacturer + " - " + desc
	}

	serial := rec.Serial
	if serial == "" {
		serial = "N/A"
	}

	warrantyStr := "Warranty status unknown"
	if end := rec.Warranty.LatestEnd(); end != nil {
		reg := "Not Registered"
		if strings.Contains(strings.ToLower(rec.Warranty.RegistrationType), "base") ||
			strings.Contains(strings.ToLower(rec.Warranty.RegistrationType), "registered") {
			reg = "Registered"
		}
		if end.Before(now) {
			warrantyStr = fmt.Sprintf("%s - Warranty expired %s", reg, end.Format("2006-01-02"))
		} else {
			warrantyStr = fmt.Sprintf("%s - Warranty until %s", reg, end.Format("2006-01-02"))
		}
	}

	return fmt.Sprintf("• %s\n  Serial: %s\n  %s", desc, serial, warrantyStr)
}
