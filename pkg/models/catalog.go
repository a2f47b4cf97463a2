package models

// Damage is a failure hypothesis from the catalog.
type Damage struct {
	Code             string  `json:"code" yaml:"code"`
	Name             string  `json:"name" yaml:"name"`
	PriorProbability float64 `json:"prior_probability" yaml:"prior_probability"`
	RepairCost       string  `json:"repair_cost,omitempty" yaml:"repair_cost,omitempty"`
	RepairTime       string  `json:"repair_time,omitempty" yaml:"repair_time,omitempty"`
	Severity         string  `json:"severity,omitempty" yaml:"severity,omitempty"` // ringan, sedang, berat
	Remedy           string  `json:"remedy,omitempty" yaml:"remedy,omitempty"`
}

// Symptom is an observable symptom with its evidence about damages.
type Symptom struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	Category   string `json:"category" yaml:"category"`
	DeviceType string `json:"device_type,omitempty" yaml:"device_type,omitempty"` // empty means any device

	// MassFunction maps damage codes to the mass this symptom assigns them.
	// The remainder up to 1 is uncertainty.
	MassFunction map[string]float64 `json:"mass_function" yaml:"mass_function"`
}

// AppliesTo reports whether the symptom is relevant for a device type.
func (s Symptom) AppliesTo(device string) bool {
	return device == "" || s.DeviceType == "" || s.DeviceType == device
}
