package equipment

import "time"

// LookupStatus describes the outcome of a warranty lookup attempt.
type LookupStatus string

const (
	// StatusFound means the site returned warranty data for the serial.
	StatusFound LookupStatus = "found"
	// StatusInsufficientData means manufacturer or serial was missing, so no
	// lookup was attempted.
	StatusInsufficientData LookupStatus = "insufficient_data"
	// StatusUnsupportedBrand means no handler exists for the manufacturer.
	StatusUnsupportedBrand LookupStatus = "unsupported_brand"
	// StatusSiteUnreachable means navigation to the lookup page failed.
	StatusSiteUnreachable LookupStatus = "site_unreachable"
	// StatusSerialNotFound means the site responded but has no record.
	// Common for old units that were never registered.
	StatusSerialNotFound LookupStatus = "serial_not_found"
	// StatusFormChanged means expected page elements were missing, which
	// usually means the site layout changed under us.
	StatusFormChanged LookupStatus = "form_changed"
	// StatusRateLimited means the site throttled or blocked automated access.
	StatusRateLimited LookupStatus = "rate_limited"
	// StatusTimeout means the page did not reach a stable state within the
	// configured navigation timeout.
	StatusTimeout LookupStatus = "timeout"
)

// Terminal reports whether the status is a failure that ends the lookup.
func (s LookupStatus) Terminal() bool {
	return s != "" && s != StatusFound
}

// Coverage is one named warranty period scraped from a manufacturer site.
type Coverage struct {
	Name      string
	TermYears int
	EndDate   time.Time
}

// Expired reports whether the coverage period has ended as of now.
func (c Coverage) Expired(now time.Time) bool {
	return c.EndDate.Before(now)
}

// Warranty holds the result of a warranty lookup, successful or not.
type Warranty struct {
	Status           LookupStatus
	InstallDate      *time.Time
	RegistrationType string
	Components       []Coverage
	// RawText is a snapshot of the result page body for audit/debugging.
	RawText string
	// Err carries detail for failed lookups. Informational only; failures
	// are represented by Status, not propagated as errors.
	Err string
}

// LatestEnd returns the furthest-out coverage end date, or nil when no
// coverage periods are known.
func (w *Warranty) LatestEnd() *time.Time {
	var latest *time.Time
	for i := range w.Components {
		end := w.Components[i].EndDate
		if latest == nil || end.After(*latest) {
			latest = &end
		}
	}
	return latest
}

// AllExpired reports whether every known coverage period has ended. Returns
// false when no coverage periods are known at all.
func (w *Warranty) AllExpired(now time.Time) bool {
	if len(w.Components) == 0 {
		return false
	}
	for _, c := range w.Components {
		if !c.Expired(now) {
			return false
		}
	}
	return true
}

// Record is the equipment record that flows through the pipeline. It is
// created empty, populated by OCR, enriched by the warranty lookup, and
// read-only once the report assembler has run. Optional fields are pointers;
// a date is either a valid time or nil, never a placeholder.
type Record struct {
	// Identity
	Manufacturer string
	ModelLine    string
	Model        string
	Serial       string

	// Manufacture metadata from the data plate
	ManufactureDate *time.Time // first day of the manufacture month
	Tonnage         *float64
	CapacityBTU     *int
	Refrigerant     string
	ChargeLbs       *float64
	ChargeOz        *float64
	Volts           string
	Phase           *int
	Hz              *int
	SEER            *float64

	// Equipment type detected from the model number (see DetectType)
	Type string

	// Install date, from the warranty lookup or approximated from the
	// manufacture date. InstallApproximated distinguishes fact from
	// inference for downstream consumers.
	InstallDate         *time.Time
	InstallApproximated bool

	Warranty Warranty
}

// installLagMonths is the assumed gap between manufacture and installation
// when no install date is available from a warranty lookup.
const installLagMonths = 3

// ResolveInstallDate fills InstallDate from the warranty result when the
// site exposed one, falling back to manufacture date + 3 months with the
// approximated flag set. Leaves the field nil when neither source exists.
func (r *Record) ResolveInstallDate() {
	if r.Warranty.InstallDate != nil {
		r.InstallDate = r.Warranty.InstallDate
		r.InstallApproximated = false
		return
	}
	if r.ManufactureDate != nil {
		d := r.ManufactureDate.AddDate(0, installLagMonths, 0)
		r.InstallDate = &d
		r.InstallApproximated = true
	}
}

// AgeYears returns the equipment age in fractional years as of now, based
// on the install date. Returns nil when the install date is unknown.
func (r *Record) AgeYears(now time.Time) *float64 {
	if r.InstallDate == nil {
		return nil
	}
	years := now.Sub(*r.InstallDate).Hours() / 24 / 365.25
	if years < 0 {
		years = 0
	}
	return &years
}

// CanLookup reports whether the record carries enough identity for a
// warranty lookup. Without both fields the lookup stage short-circuits.
func (r *Record) CanLookup() bool {
	return r.Manufacturer != "" && r.Serial != ""
}
