package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// WeightUnit is a named mass unit with a fixed grams-per-unit ratio.
type WeightUnit struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Grams float64 `json:"grams"`
}

// GramsPerTroyOunce is the exact troy ounce definition.
const GramsPerTroyOunce = 31.1034768

var (
	Gram           = WeightUnit{Name: "gram", Label: "g", Grams: 1.0}
	TroyOunce      = WeightUnit{Name: "ozt", Label: "ozt (31.10g)", Grams: GramsPerTroyOunce}
	ThaiBahtWeight = WeightUnit{Name: "baht", Label: "baht wt (15.24g)", Grams: 15.244}
	LuongVN        = WeightUnit{Name: "luong", Label: "Lượng (VN) (37.49g)", Grams: 37.49}
	ChiVN          = WeightUnit{Name: "chi", Label: "Chỉ (VN) (3.749g)", Grams: 3.749}
	TaelHK         = WeightUnit{Name: "tael", Label: "Tael (HK) (37.80g)", Grams: 37.799364167}
	Mace           = WeightUnit{Name: "mace", Label: "Mace (HK) (3.78g)", Grams: 3.7799364167}
	Tola           = WeightUnit{Name: "tola", Label: "Tola (11.66g)", Grams: 11.6638038}
	Aana           = WeightUnit{Name: "aana", Label: "Aana (0.97g)", Grams: 0.97198365}
	Rati           = WeightUnit{Name: "rati", Label: "Rati (0.243g)", Grams: 0.24299591}
)

// WeightUnits lists every unit in picker order.
var WeightUnits = []WeightUnit{Gram, ThaiBahtWeight, TroyOunce, LuongVN, ChiVN, TaelHK, Mace, Tola, Aana, Rati}

var unitByName = lo.KeyBy(WeightUnits, func(u WeightUnit) string { return u.Name })

// ToGrams converts an amount expressed in u into grams.
func (u WeightUnit) ToGrams(amount float64) float64 { return amount * u.Grams }

// ParseWeightUnit looks a unit up by name. "g" and "oz" are accepted as aliases.
func ParseWeightUnit(s string) (WeightUnit, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "g", "grams":
		name = "gram"
	case "oz", "troy-ounce":
		name = "ozt"
	}
	u, ok := unitByName[name]
	if !ok {
		return WeightUnit{}, fmt.Errorf("%w: unknown weight unit %q", ErrInvalidInput, s)
	}
	return u, nil
}

// AllowedUnits returns the units offered for a metal.
func AllowedUnits(m Metal) []WeightUnit {
	if m == Gold {
		return WeightUnits
	}
	return []WeightUnit{Gram, TroyOunce}
}
