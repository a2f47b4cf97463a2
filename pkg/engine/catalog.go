package engine

import "github.com/kamilpajak/diagnosa/pkg/models"

// Catalog is a read-only snapshot of damages and symptoms for one request.
type Catalog struct {
	Damages  []models.Damage  `json:"damages"`
	Symptoms []models.Symptom `json:"symptoms"`
}

// ForDevice returns a snapshot restricted to symptoms that apply to device.
// An empty device returns the catalog unchanged.
func (c Catalog) ForDevice(device string) Catalog {
	if device == "" {
		return c
	}
	out := Catalog{Damages: c.Damages, Symptoms: make([]models.Symptom, 0, len(c.Symptoms))}
	for _, s := range c.Symptoms {
		if s.AppliesTo(device) {
			out.Symptoms = append(out.Symptoms, s)
		}
	}
	return out
}

// Symptom looks up a symptom by code.
func (c Catalog) Symptom(code string) (models.Symptom, bool) {
	for _, s := range c.Symptoms {
		if s.Code == code {
			return s, true
		}
	}
	return models.Symptom{}, false
}

// Damage looks up a damage by code.
func (c Catalog) Damage(code string) (models.Damage, bool) {
	for _, d := range c.Damages {
		if d.Code == code {
			return d, true
		}
	}
	return models.Damage{}, false
}

// DeviceTypes returns the distinct non-empty device types, in catalog order.
func (c Catalog) DeviceTypes() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range c.Symptoms {
		if s.DeviceType != "" && !seen[s.DeviceType] {
			seen[s.DeviceType] = true
			out = append(out, s.DeviceType)
		}
	}
	return out
}
