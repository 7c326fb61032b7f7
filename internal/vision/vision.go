package vision

import (
	"context"

	"github.com/christmasair/plate-scanner/internal/equipment"
)

// PlateReading is the raw, validated output of a data-plate OCR call.
// Fields the vision model could not read are nil/empty, never zero-value
// facts.
type PlateReading struct {
	IsDataPlate bool
	Confidence  float64

	Manufacturer string
	ModelLine    string
	ModelNumber  string
	SerialNumber string
	// MfrDate is the manufacture year/month as "YYYY-MM", or "" when not
	// readable. Parsed into a date at record-population time.
	MfrDate string

	RefrigerantType string
	ChargeLbs       *float64
	ChargeOz        *float64

	Tonnage     *float64
	CapacityBTU *int

	Volts string
	Phase *int
	Hz    *int
	SEER  *float64
}

// Usage contains token usage and cost information for one OCR call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// PlateResult bundles the reading with usage accounting.
type PlateResult struct {
	Reading *PlateReading
	Usage   Usage
}

// Analyzer can OCR an equipment data-plate photo into structured fields.
type Analyzer interface {
	// AnalyzePlate reads a data plate from image bytes. A photo that is not
	// a data plate is a valid result (IsDataPlate false), not an error.
	AnalyzePlate(ctx context.Context, imageData []byte) (*PlateResult, error)
}

// PopulateRecord copies a plate reading into an equipment record, parsing
// the manufacture date and detecting the equipment type. Unreadable fields
// stay absent on the record.
func PopulateRecord(rec *equipment.Record, reading *PlateReading) {
	rec.Manufacturer = reading.Manufacturer
	rec.ModelLine = reading.ModelLine
	rec.Model = reading.ModelNumber
	rec.Serial = reading.SerialNumber
	rec.Refrigerant = reading.RefrigerantType
	rec.ChargeLbs = reading.ChargeLbs
	rec.ChargeOz = reading.ChargeOz
	rec.Tonnage = reading.Tonnage
	rec.CapacityBTU = reading.CapacityBTU
	rec.Volts = reading.Volts
	rec.Phase = reading.Phase
	rec.Hz = reading.Hz
	rec.SEER = reading.SEER
	rec.Type = equipment.DetectType(reading.ModelNumber)

	if d, ok := parseMfrDate(reading.MfrDate); ok {
		rec.ManufactureDate = &d
	}
}
