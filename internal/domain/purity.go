package domain

import (
	"fmt"
	"strings"
)

// Purity is a named fineness preset.
type Purity struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Factor float64 `json:"factor"`
}

var (
	K24           = Purity{"k24", "24K (99.9%)", 0.999}
	Thai965       = Purity{"thai965", "23K Thai (96.5%)", 0.965}
	K22           = Purity{"k22", "22K (91.7%)", 0.917}
	K21           = Purity{"k21", "21K (87.5%)", 0.875}
	K20           = Purity{"k20", "20K (83.3%)", 0.833}
	K18           = Purity{"k18", "18K (75.0%)", 0.750}
	K14           = Purity{"k14", "14K (58.5%)", 0.585}
	K10           = Purity{"k10", "10K (41.7%)", 0.417}
	K9            = Purity{"k9", "9K (37.5%)", 0.375}
	Silver999     = Purity{"silver999", "Fine .999 (99.9%)", 0.999}
	Silver925     = Purity{"silver925", "Sterling .925 (92.5%)", 0.925}
	Platinum9995  = Purity{"platinum9995", "Platinum 999.5 (99.95%)", 0.9995}
	Platinum950   = Purity{"platinum950", "Platinum 950 (95.0%)", 0.950}
	Palladium9995 = Purity{"palladium9995", "Palladium 999.5 (99.95%)", 0.9995}
	Palladium950  = Purity{"palladium950", "Palladium 950 (95.0%)", 0.950}
)

var puritiesByMetal = map[Metal][]Purity{
	Gold:      {K24, Thai965, K22, K21, K20, K18, K14, K10, K9},
	Silver:    {Silver999, Silver925},
	Platinum:  {Platinum950, Platinum9995},
	Palladium: {Palladium950, Palladium9995},
}

// AllowedPurities returns the presets offered for a metal.
func AllowedPurities(m Metal) []Purity {
	return puritiesByMetal[m]
}

// DefaultPurity is the preset selected when the metal changes.
func DefaultPurity(m Metal) Purity {
	switch m {
	case Silver:
		return Silver999
	case Platinum:
		return Platinum950
	case Palladium:
		return Palladium950
	default:
		return K24
	}
}

// ParsePurity finds a preset by ID among those allowed for the metal.
func ParsePurity(m Metal, id string) (Purity, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range puritiesByMetal[m] {
		if p.ID == id {
			return p, nil
		}
	}
	return Purity{}, fmt.Errorf("%w: purity %q not offered for %s", ErrInvalidInput, id, m)
}
