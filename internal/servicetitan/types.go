package servicetitan

// EquipmentPayload is the installed-equipment record shape ServiceTitan's
// Equipment Systems API accepts. Dates are RFC3339 strings; an absent date
// stays absent in the JSON rather than defaulting to anything.
type EquipmentPayload struct {
	LocationID                int64  `json:"locationId,omitempty"`
	Name                      string `json:"name"`
	Manufacturer              string `json:"manufacturer,omitempty"`
	Model                     string `json:"model,omitempty"`
	SerialNumber              string `json:"serialNumber,omitempty"`
	Type                      string `json:"type,omitempty"`
	Capacity                  string `json:"capacity,omitempty"`
	InstalledOn               string `json:"installedOn,omitempty"`
	ManufacturerWarrantyStart string `json:"manufacturerWarrantyStart,omitempty"`
	ManufacturerWarrantyEnd   string `json:"manufacturerWarrantyEnd,omitempty"`
	Memo                      string `json:"memo,omitempty"`
	Status                    string `json:"status,omitempty"`
}

// InstalledEquipment is an equipment record as ServiceTitan returns it.
type InstalledEquipment struct {
	ID           int64  `json:"id"`
	LocationID   int64  `json:"locationId"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
}

// Job is the subset of a ServiceTitan job the pipeline needs: the location
// and customer the equipment record hangs off, and the summary we append
// scan results to.
type Job struct {
	ID         int64  `json:"id"`
	JobNumber  string `json:"jobNumber"`
	JobStatus  string `json:"jobStatus"`
	LocationID int64  `json:"locationId"`
	CustomerID int64  `json:"customerId"`
	Summary    string `json:"summary"`
}

// Location is a ServiceTitan service location.
type Location struct {
	ID         int64   `json:"id"`
	CustomerID int64   `json:"customerId"`
	Name       string  `json:"name"`
	Address    Address `json:"address"`
}

// Address is a ServiceTitan street address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}
