package vision

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// extractJSONObject extracts a JSON object from text that may contain
// markdown code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// ParsePlateJSON validates the loosely-typed JSON the vision model returns
// and converts it into a PlateReading. Missing or malformed fields become
// explicitly absent rather than zero-value facts: a non-numeric tonnage is
// nil, a date that doesn't parse as YYYY-MM is dropped, and so on.
func ParsePlateJSON(text string) (*PlateReading, error) {
	jsonStr, err := extractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plate response: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse plate response JSON: %w (response: %s)", err, jsonStr)
	}

	reading := &PlateReading{
		IsDataPlate:     asBool(raw["is_data_plate"]),
		Confidence:      floatOrZero(raw["confidence"]),
		Manufacturer:    asString(raw["manufacturer"]),
		ModelLine:       asString(raw["model_line"]),
		ModelNumber:     asString(raw["model_number"]),
		SerialNumber:    asString(raw["serial_number"]),
		RefrigerantType: asString(raw["refrigerant_type"]),
		ChargeLbs:       asFloat(raw["refrigerant_charge_lbs"]),
		ChargeOz:        asFloat(raw["refrigerant_charge_oz"]),
		Tonnage:         asFloat(raw["tonnage"]),
		CapacityBTU:     asInt(raw["capacity_btu"]),
		Volts:           asString(raw["volts"]),
		Phase:           asInt(raw["phase"]),
		Hz:              asInt(raw["hz"]),
		SEER:            asFloat(raw["seer"]),
	}

	// Only keep the manufacture date when it actually parses.
	if d := asString(raw["mfr_date"]); d != "" {
		if _, ok := parseMfrDate(d); ok {
			reading.MfrDate = d
		}
	}

	// A zero tonnage/capacity is the model saying "unknown", not a fact.
	if reading.Tonnage != nil && *reading.Tonnage == 0 {
		reading.Tonnage = nil
	}
	if reading.CapacityBTU != nil && *reading.CapacityBTU == 0 {
		reading.CapacityBTU = nil
	}
	if reading.SEER != nil && *reading.SEER == 0 {
		reading.SEER = nil
	}

	return reading, nil
}

// parseMfrDate parses a "YYYY-MM" manufacture date into the first day of
// that month, UTC.
func parseMfrDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) *float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

func asInt(v any) *int {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func floatOrZero(v any) float64 {
	if f := asFloat(v); f != nil {
		return *f
	}
	return 0
}
