// Package forecast derives the prediction view model from a forecast result.
package forecast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// Detail and comparison limits.
const (
	Months          = 12
	ComparisonLimit = 5
	DetailLimit     = 8
)

// Mode selects which value the comparison chart and detail table show.
type Mode string

// Supported view modes.
const (
	ModeMonthly Mode = "monthly"
	ModeAnnual  Mode = "annual"
)

// ParseMode maps a form value to a Mode. Unknown values fall back to monthly.
func ParseMode(v string) Mode {
	if Mode(strings.ToLower(v)) == ModeAnnual {
		return ModeAnnual
	}
	return ModeMonthly
}

// View is the presentation choice for the comparison section.
type View struct {
	Mode  Mode `json:"mode" yaml:"mode"`
	Month int  `json:"month" yaml:"month"`
}

// DefaultView shows January in monthly mode.
func DefaultView() View {
	return View{Mode: ModeMonthly, Month: 1}
}

// Palette is the colour pair of a gas in forecast charts.
type Palette struct {
	Primary string `json:"primary" yaml:"primary"`
	Light   string `json:"light" yaml:"light"`
}

// GasPalettes colours forecast gases.
var GasPalettes = map[string]Palette{
	emissions.GasCO2: {Primary: "#fb923c", Light: "rgba(251, 146, 60, 0.1)"},
	emissions.GasCH4: {Primary: "#c084fc", Light: "rgba(192, 132, 252, 0.1)"},
	emissions.GasN2O: {Primary: "#38bdf8", Light: "rgba(56, 189, 248, 0.1)"},
}

// PaletteFor returns the palette of gas, defaulting to the CO₂ colours.
func PaletteFor(gas string) Palette {
	if p, ok := GasPalettes[strings.ToLower(gas)]; ok {
		return p
	}
	return GasPalettes[emissions.GasCO2]
}

// Transform derives the prediction view model for view from res. Changing view only needs
// another call with the same res.
func Transform(res emissions.ForecastResult, view View) ViewModel {
	if view.Mode != ModeAnnual {
		view.Mode = ModeMonthly
	}
	if view.Month < 1 || view.Month > Months {
		view.Month = 1
	}

	vm := ViewModel{View: view, Insights: res.LLMInsights}
	vm.Country = res.Meta.Country
	if vm.Country == "" {
		vm.Country = "Unknown"
	}
	vm.Sector = res.Meta.Sector
	if vm.Sector == "" {
		vm.Sector = "Unknown"
	}
	vm.Year = res.Meta.Year
	vm.YearLabel = "Unknown Year"
	if vm.Year > 0 {
		vm.YearLabel = strconv.Itoa(vm.Year)
	}
	vm.Gas = strings.ToLower(res.RequestedGas())
	vm.GasLabel = emissions.GasLabel(vm.Gas)
	vm.Palette = PaletteFor(vm.Gas)
	vm.Title = fmt.Sprintf("%s - %s - %s", strings.ToUpper(vm.Country), capitalize(vm.Sector), vm.YearLabel)
	vm.DatasetLabel = strings.ToUpper(vm.Gas) + " Emissions"
	vm.MonthLabels = emissions.MonthAbbrevs()

	data := res.Data
	if data == nil {
		vm.Monthly = NormalizeMonthly(nil)
		return vm
	}
	vm.Monthly = NormalizeMonthly(data.MonthlyTrends)
	var peakIdx int
	vm.PeakMonth, peakIdx, vm.AverageMonthly = MonthlyStats(vm.Monthly)
	vm.PeakMonthLabel = vm.MonthLabels[peakIdx]
	vm.TotalEmissions = data.TotalEmissions
	vm.Composition, vm.TotalCombined = Composition(data.GasComposition)

	rows := Subsectors(data, vm.Composition, view.Month)
	vm.Comparison = compare(rows, vm.Composition, view)
	if len(rows) > DetailLimit {
		rows = rows[:DetailLimit]
	}
	vm.Details = rows
	return vm
}

// MonthlyStats returns the highest value with its index, first wins on ties, and the mean
// over every entry. Padded zeros count toward the mean.
func MonthlyStats(monthly []float64) (peak float64, idx int, avg float64) {
	if len(monthly) == 0 {
		return 0, 0, 0
	}
	var sum float64
	peak = monthly[0]
	for i, v := range monthly {
		sum += v
		if v > peak {
			peak, idx = v, i
		}
	}
	return peak, idx, sum / float64(len(monthly))
}

// NormalizeMonthly returns exactly twelve values: the first twelve of series, or series
// right-padded with zeros.
func NormalizeMonthly(series []float64) []float64 {
	out := make([]float64, Months)
	copy(out, series)
	return out
}

// Composition lists gases present in the absolute totals in canonical order.
func Composition(gc *emissions.GasComposition) ([]GasEntry, float64) {
	if gc == nil {
		return nil, 0
	}
	entries := make([]GasEntry, 0, len(emissions.GasOrder))
	for _, gas := range emissions.GasOrder {
		absolute, ok := gc.AbsoluteTotals[gas]
		if !ok {
			continue
		}
		entries = append(entries, GasEntry{
			Gas:      gas,
			Label:    emissions.GasLabel(gas),
			Palette:  PaletteFor(gas),
			Ratio:    gc.Ratios[gas],
			Absolute: absolute,
		})
	}
	return entries, gc.TotalCombined
}

// Subsectors splits every subsector across the present gases using the overall gas ratio,
// sorted by annual total descending with source order kept for ties.
func Subsectors(data *emissions.ForecastData, gases []GasEntry, month int) []SubsectorRow {
	if data == nil {
		return nil
	}
	idx := month - 1
	rows := make([]SubsectorRow, 0, len(data.SubsectorBreakdown))
	for _, s := range data.SubsectorBreakdown {
		row := SubsectorRow{
			Name:          s.Name,
			DisplayName:   emissions.DisplayName(s.Name),
			AnnualTotal:   s.Total,
			MonthlyValues: s.Monthly,
		}
		if idx >= 0 && idx < len(s.Monthly) {
			row.MonthlyValue = s.Monthly[idx]
		}
		if row.AnnualTotal > 0 && data.TotalEmissions > 0 {
			row.ShareOfTotal = row.AnnualTotal / data.TotalEmissions * 100
		}
		row.GasValues = make([]GasValue, len(gases))
		for i, g := range gases {
			row.GasValues[i] = GasValue{
				Gas:            g.Gas,
				Ratio:          g.Ratio,
				SubsectorValue: row.AnnualTotal * g.Ratio / 100,
				MonthlyValue:   row.MonthlyValue * g.Ratio / 100,
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AnnualTotal > rows[j].AnnualTotal })
	return rows
}

func compare(rows []SubsectorRow, gases []GasEntry, view View) Comparison {
	period := "Annual"
	if view.Mode == ModeMonthly {
		period = emissions.MonthName(view.Month)
	}
	top := rows
	if len(top) > ComparisonLimit {
		top = top[:ComparisonLimit]
	}
	c := Comparison{
		Title:  "Gas Comparison Across Top Subsectors - " + period,
		Period: period,
		Labels: make([]string, len(top)),
		Series: make([]ComparisonSeries, len(gases)),
	}
	for i, row := range top {
		c.Labels[i] = row.DisplayName
	}
	for gi, g := range gases {
		series := ComparisonSeries{Gas: g.Gas, Label: g.Label, Color: g.Palette.Primary, Values: make([]float64, len(top))}
		for i, row := range top {
			series.Values[i] = row.GasValues[gi].Value(view.Mode)
		}
		c.Series[gi] = series
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
