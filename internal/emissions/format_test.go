package emissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	cases := map[float64]string{
		0:         "0.00",
		950:       "950.00",
		999.999:   "1000.00",
		1500:      "1.50K",
		2_500_000: "2.50M",
		1_000_000: "1.00M",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatValue(in), "value %v", in)
	}
	assert.Equal(t, "1.50K tons", FormatTons(1500))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Road Transportation", DisplayName("road-transportation"))
	assert.Equal(t, "Domestic Aviation", DisplayName("domestic aviation"))
	assert.Equal(t, "Power", DisplayName("power"))
	assert.Equal(t, "", DisplayName(""))
}

func TestPercentFormatting(t *testing.T) {
	assert.Equal(t, "26.3%", FormatPercent(26.3157))
	assert.Equal(t, "+26.32%", SignedPercent(26.3157))
	assert.Equal(t, "-4.00%", SignedPercent(-4))
	assert.Equal(t, "0.00%", SignedPercent(0))
}

func TestLocaleNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", LocaleNumber(1234567))
	assert.Equal(t, "1,234.50", LocaleNumber(1234.5))

	assert.Equal(t, "1,234,567", LocaleTotal(1234567))
	assert.Equal(t, "1,234.6", LocaleTotal(1234.56))
	assert.Equal(t, "1,235", LocaleTotal(1234.96))
	assert.Equal(t, "0", LocaleTotal(0))
}

func TestGasLabels(t *testing.T) {
	assert.Equal(t, "CO₂", GasLabel("co2"))
	assert.Equal(t, "N₂O", GasLabel("N2O"))
	assert.Equal(t, "SF6", GasLabel("sf6"))
	assert.Equal(t, "ch4", NormalizeGas("CH₄"))
	assert.Equal(t, "co2", NormalizeGas(" CO₂ "))
}

func TestCatalog(t *testing.T) {
	regions := Regions()
	assert.Len(t, regions, 8)
	assert.Equal(t, Option{Value: "PAK", Label: "Pakistan"}, regions[0])
	assert.Equal(t, "Sri Lanka", RegionName("LKA"))
	assert.Equal(t, "XYZ", RegionName("XYZ"))

	sectors := Sectors()
	assert.Len(t, sectors, 9)
	assert.Equal(t, "Forestry and Land Use", SectorLabel("forestry-and-land-use"))
	assert.Equal(t, "Transportation", SectorLabel("transportation"))
	assert.Len(t, Gases(), 3)
}
