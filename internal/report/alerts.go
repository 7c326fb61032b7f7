package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// Severity grades an alert for the office staff triaging scan results.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Alert categories.
const (
	AlertRefrigerant     = "discontinued_refrigerant"
	AlertAge             = "age_over_lifespan"
	AlertWarrantyExpired = "warranty_expired"
	AlertEfficiency      = "below_minimum_seer"
)

// Alert is one derived marketing/replacement-candidacy flag.
type Alert struct {
	Category string
	Severity Severity
	Message  string
}

// Thresholds configure alert derivation.
type Thresholds struct {
	// LifespanYears is the typical equipment lifespan; age beyond it raises
	// a high-severity alert. Default 15.
	LifespanYears float64
	// MinSEER is the current-minimum efficiency rating; a lower SEER raises
	// a medium-severity alert. Default 14.
	MinSEER float64
}

// DefaultThresholds returns the standard thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{LifespanYears: 15, MinSEER: 14}
}

// discontinuedRefrigerants are refrigerants phased out of production;
// recharging a system that uses one is disproportionately expensive.
var discontinuedRefrigerants = []string{"r-22", "r22", "r-12", "r12"}

func isDiscontinuedRefrigerant(refrigerant string) bool {
	r := strings.ToLower(refrigerant)
	for _, d := range discontinuedRefrigerants {
		for _, tok := range strings.FieldsFunc(r, func(c rune) bool {
			return c == ',' || c == ' ' || c == ';'
		}) {
			if tok == d {
				return true
			}
		}
	}
	return false
}

// DeriveAlerts computes the record's alerts as of now. The rules are fixed;
// only the thresholds are configurable.
func DeriveAlerts(rec *equipment.Record, th Thresholds, now time.Time) []Alert {
	var alerts []Alert

	if isDiscontinuedRefrigerant(rec.Refrigerant) {
		alerts = append(alerts, Alert{
			Category: AlertRefrigerant,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Uses discontinued refrigerant %s. Recharges are expensive and supplies are drying up.", strings.TrimSpace(rec.Refrigerant)),
		})
	}

	if age := rec.AgeYears(now); age != nil && *age > th.LifespanYears {
		alerts = append(alerts, Alert{
			Category: AlertAge,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Unit is %.1f years old, past the typical %.0f-year lifespan.", *age, th.LifespanYears),
		})
	}

	if rec.Warranty.Status == equipment.StatusFound && rec.Warranty.AllExpired(now) {
		alerts = append(alerts, Alert{
			Category: AlertWarrantyExpired,
			Severity: SeverityHigh,
			Message:  "All warranty coverage has expired. 100% of any repair cost falls to the customer.",
		})
	}

	if rec.SEER != nil && *rec.SEER < th.MinSEER {
		alerts = append(alerts, Alert{
			Category: AlertEfficiency,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("SEER %.1f is below the current minimum of %.0f.", *rec.SEER, th.MinSEER),
		})
	}

	return alerts
}

// ReplacementCandidate reports whether any high-severity alert is present.
func ReplacementCandidate(alerts []Alert) bool {
	for _, a := range alerts {
		if a.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
