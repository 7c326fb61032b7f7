package vision

import (
	"testing"
	"time"

	"github.com/christmasair/plate-scanner/internal/equipment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlateJSON(t *testing.T) {
	text := "```json\n" + `{
		"is_data_plate": true,
		"confidence": 0.95,
		"manufacturer": "Trane",
		"model_line": "XR",
		"model_number": "2TTR2048A1000AA",
		"serial_number": "5434REB2F",
		"mfr_date": "2005-10",
		"refrigerant_type": "R-22",
		"refrigerant_charge_lbs": 7,
		"refrigerant_charge_oz": 8,
		"tonnage": 4,
		"capacity_btu": 48000,
		"volts": "208/230V",
		"phase": 1,
		"hz": 60,
		"seer": 12
	}` + "\n```"

	reading, err := ParsePlateJSON(text)
	require.NoError(t, err)

	assert.True(t, reading.IsDataPlate)
	assert.InDelta(t, 0.95, reading.Confidence, 0.001)
	assert.Equal(t, "Trane", reading.Manufacturer)
	assert.Equal(t, "2TTR2048A1000AA", reading.ModelNumber)
	assert.Equal(t, "5434REB2F", reading.SerialNumber)
	assert.Equal(t, "2005-10", reading.MfrDate)
	assert.Equal(t, "R-22", reading.RefrigerantType)
	require.NotNil(t, reading.Tonnage)
	assert.Equal(t, 4.0, *reading.Tonnage)
	require.NotNil(t, reading.CapacityBTU)
	assert.Equal(t, 48000, *reading.CapacityBTU)
	require.NotNil(t, reading.SEER)
	assert.Equal(t, 12.0, *reading.SEER)
}

func TestParsePlateJSONMalformedFieldsBecomeAbsent(t *testing.T) {
	text := `{
		"is_data_plate": true,
		"confidence": "high",
		"manufacturer": "Goodman",
		"serial_number": "0807123456",
		"mfr_date": "sometime in 2008",
		"tonnage": "three and a half",
		"capacity_btu": 0,
		"seer": 0,
		"phase": null
	}`

	reading, err := ParsePlateJSON(text)
	require.NoError(t, err)

	assert.True(t, reading.IsDataPlate)
	assert.Equal(t, 0.0, reading.Confidence)
	assert.Equal(t, "Goodman", reading.Manufacturer)
	assert.Equal(t, "", reading.MfrDate)
	assert.Nil(t, reading.Tonnage)
	assert.Nil(t, reading.CapacityBTU)
	assert.Nil(t, reading.SEER)
	assert.Nil(t, reading.Phase)
}

func TestParsePlateJSONNotADataPlate(t *testing.T) {
	reading, err := ParsePlateJSON(`{"is_data_plate": false, "confidence": 0.9}`)
	require.NoError(t, err)
	assert.False(t, reading.IsDataPlate)
}

func TestParsePlateJSONNoJSON(t *testing.T) {
	_, err := ParsePlateJSON("I cannot read this image.")
	assert.Error(t, err)
}

func TestPopulateRecord(t *testing.T) {
	tonnage := 4.0
	reading := &PlateReading{
		IsDataPlate:  true,
		Manufacturer: "Trane",
		ModelNumber:  "2TTR2048A1000AA",
		SerialNumber: "5434REB2F",
		MfrDate:      "2005-10",
		Tonnage:      &tonnage,
	}

	var rec equipment.Record
	PopulateRecord(&rec, reading)

	assert.Equal(t, "Trane", rec.Manufacturer)
	assert.Equal(t, "Air Conditioner", rec.Type)
	require.NotNil(t, rec.ManufactureDate)
	assert.Equal(t, time.Date(2005, 10, 1, 0, 0, 0, 0, time.UTC), *rec.ManufactureDate)
	require.NotNil(t, rec.Tonnage)
	assert.Equal(t, 4.0, *rec.Tonnage)
}
