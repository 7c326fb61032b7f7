package equipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveBrand(t *testing.T) {
	tests := []struct {
		manufacturer string
		handler      string
		ok           bool
	}{
		{"Trane", HandlerAmericanStandard, true},
		{"TRANE", HandlerAmericanStandard, true},
		{"American Standard", HandlerAmericanStandard, true},
		{"AMERICAN STANDARD Heating & Air Conditioning", HandlerAmericanStandard, true},
		{"Carrier", HandlerCarrier, true},
		{"Bryant", HandlerCarrier, true},
		{"Payne", HandlerCarrier, true},
		{"Tempstar", HandlerCarrier, true},
		{"Comfortmaker", HandlerCarrier, true},
		{"Day & Night", HandlerCarrier, true},
		{"Goodman", HandlerGoodman, true},
		{"Amana", HandlerGoodman, true},
		{"LENNOX Industries", HandlerLennox, true},
		{"Rheem", "", false},
		{"York", "", false},
		{"", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		handler, ok := ResolveBrand(tt.manufacturer)
		assert.Equal(t, tt.ok, ok, "manufacturer %q", tt.manufacturer)
		assert.Equal(t, tt.handler, handler, "manufacturer %q", tt.manufacturer)
	}
}

func TestResolveBrandAmbiguousRefusesToGuess(t *testing.T) {
	// Should not happen with real plates, but if OCR mashes two brands into
	// one string we must not pick a side.
	handler, ok := ResolveBrand("Trane / Carrier")
	assert.False(t, ok)
	assert.Equal(t, "", handler)
}

func TestResolveBrandSameGroupTwiceIsFine(t *testing.T) {
	handler, ok := ResolveBrand("Trane by American Standard")
	assert.True(t, ok)
	assert.Equal(t, HandlerAmericanStandard, handler)
}
