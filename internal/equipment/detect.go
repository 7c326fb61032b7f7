package equipment

import "strings"

// typePatterns maps equipment types to model number patterns and prefixes.
// The patterns cover common Trane/American Standard and Carrier model
// families seen in the field.
var typePatterns = []struct {
	name     string
	patterns []string
	prefixes []string
}{
	{
		name:     "Air Conditioner",
		patterns: []string{"24AC", "24ACC", "4AC", "4ACC", "2TTR", "4TTR", "XR1"},
		prefixes: []string{"24", "4A"},
	},
	{
		name:     "Gas Furnace",
		patterns: []string{"TUD", "TDD", "XC95", "S9V2", "S8X"},
		prefixes: []string{"58", "59"},
	},
	{
		name:     "Heat Pump",
		patterns: []string{"4TWR", "4TWX", "XL16", "XL15", "XL20I", "25HP"},
		prefixes: []string{"25"},
	},
	{
		name:     "Air Handler",
		patterns: []string{"4TEE", "4TEM", "TWE", "GAM"},
	},
	{
		name:     "Package Unit",
		patterns: []string{"4YCC", "4YCY", "48TM", "RTU"},
		prefixes: []string{"48"},
	},
	{
		name:     "Evaporator Coil",
		patterns: []string{"4PXC", "4TXC", "CNPV", "COIL"},
	},
	{
		name:     "Mini Split",
		patterns: []string{"4MXW", "4MXX", "4MYW"},
	},
}

// DetectType guesses the equipment type from model number patterns.
// Returns "Other" when nothing matches.
func DetectType(modelNumber string) string {
	if modelNumber == "" {
		return "Other"
	}
	model := strings.ToUpper(modelNumber)

	for _, t := range typePatterns {
		for _, p := range t.patterns {
			if strings.Contains(model, p) {
				return t.name
			}
		}
		for _, p := range t.prefixes {
			if strings.HasPrefix(model, p) {
				return t.name
			}
		}
	}
	return "Other"
}
