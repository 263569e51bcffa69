package emissions

import (
	"slices"
	"strings"

	"github.com/biter777/countries"
)

// Option is a value/label pair rendered in filter forms.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Gas identifiers accepted by the emissions API.
const (
	GasCO2 = "co2"
	GasCH4 = "ch4"
	GasN2O = "n2o"
)

// RegionCodes lists the ISO 3166-1 alpha-3 codes offered by the filters, in display order.
var RegionCodes = []string{"PAK", "IND", "BGD", "AFG", "LKA", "BTN", "NPL", "MDV"}

// SectorSlugs lists the sector identifiers offered by the filters, in display order.
var SectorSlugs = []string{
	"transportation",
	"manufacturing",
	"agriculture",
	"forestry-and-land-use",
	"mineral-extraction",
	"fossil-fuel-operations",
	"buildings",
	"power",
	"waste",
}

// GasOrder is the canonical gas ordering used by composition views.
var GasOrder = []string{GasCO2, GasCH4, GasN2O}

var sectorLabels = map[string]string{
	"forestry-and-land-use":  "Forestry and Land Use",
	"mineral-extraction":     "Mineral Extraction",
	"fossil-fuel-operations": "Fossil Fuel Operations",
}

var gasLabels = map[string]string{
	GasCO2: "CO₂",
	GasCH4: "CH₄",
	GasN2O: "N₂O",
}

// RegionName resolves an ISO3 code to its English country name.
func RegionName(code string) string {
	name := countries.ByName(code)
	if name == countries.Unknown {
		return code
	}
	return name.String()
}

// Regions returns the region options.
func Regions() []Option {
	out := make([]Option, 0, len(RegionCodes))
	for _, code := range RegionCodes {
		out = append(out, Option{Value: code, Label: RegionName(code)})
	}
	return out
}

// SectorLabel returns the human label of a sector slug.
func SectorLabel(slug string) string {
	if label, ok := sectorLabels[slug]; ok {
		return label
	}
	return DisplayName(slug)
}

// Sectors returns the sector options.
func Sectors() []Option {
	out := make([]Option, 0, len(SectorSlugs))
	for _, slug := range SectorSlugs {
		out = append(out, Option{Value: slug, Label: SectorLabel(slug)})
	}
	return out
}

// Gases returns the gas options.
func Gases() []Option {
	out := make([]Option, 0, len(GasOrder))
	for _, gas := range GasOrder {
		out = append(out, Option{Value: gas, Label: gasLabels[gas]})
	}
	return out
}

// GasLabel renders a gas identifier with subscript digits. Unknown gases are upper-cased.
func GasLabel(gas string) string {
	if label, ok := gasLabels[strings.ToLower(gas)]; ok {
		return label
	}
	return strings.ToUpper(gas)
}

// NormalizeGas maps display forms such as "CO₂" back to the wire identifier.
func NormalizeGas(gas string) string {
	replacer := strings.NewReplacer("₂", "2", "₄", "4")
	return strings.ToLower(strings.TrimSpace(replacer.Replace(gas)))
}

// IsRegion reports whether code is one of the offered regions.
func IsRegion(code string) bool {
	return slices.Contains(RegionCodes, code)
}

// IsSector reports whether slug is one of the offered sectors.
func IsSector(slug string) bool {
	return slices.Contains(SectorSlugs, slug)
}

// IsGas reports whether gas is a known gas identifier.
func IsGas(gas string) bool {
	return slices.Contains(GasOrder, gas)
}
