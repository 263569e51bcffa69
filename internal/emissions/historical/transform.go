// Package historical derives the dashboard view model from a historical result.
package historical

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// Palette colours subsector bars by rank, cycling when there are more subsectors.
var Palette = []string{
	"#ef4444", "#3b82f6", "#f59e0b", "#10b981", "#8b5cf6",
	"#ec4899", "#6366f1", "#14b8a6", "#f97316",
}

// Gas colours of the ratio chart. Unknown gases use FallbackGasColor.
var GasColors = map[string]string{
	emissions.GasCO2: "#10b981",
	emissions.GasCH4: "#3b82f6",
	emissions.GasN2O: "#8b5cf6",
}

// FallbackGasColor colours gases missing from GasColors.
const FallbackGasColor = "#6b7280"

// Transform derives every dashboard figure from res. It is pure.
func Transform(res emissions.HistoricalResult) DashboardViewModel {
	var vm DashboardViewModel
	vm.Insights = res.LLMInsights
	data := res.Data
	if data == nil {
		return vm
	}

	vm.Sector = data.SectorName
	vm.SectorLabel = "Transportation"
	if data.SectorName != "" {
		vm.SectorLabel = emissions.SectorLabel(data.SectorName)
	}
	vm.Gas = data.GasName
	if vm.Gas == "" {
		vm.Gas = emissions.GasCO2
	}
	vm.GasLabel = emissions.GasLabel(vm.Gas)
	vm.DatasetLabel = fmt.Sprintf("%s Emissions (tons %s)", vm.SectorLabel, vm.GasLabel)
	vm.TotalEmission = data.TotalEmissionOverall

	vm.Yearly = SortedYears(data.YearlyTotals)
	vm.YoYChange = YoYChange(vm.Yearly)
	vm.AverageGrowth = AverageGrowth(vm.Yearly)
	if peak, ok := Peak(vm.Yearly); ok {
		vm.PeakYear, vm.PeakValue = peak.Year, peak.Value
	}
	if n := len(vm.Yearly); n > 0 {
		vm.LatestYear, vm.LatestValue = vm.Yearly[n-1].Year, vm.Yearly[n-1].Value
		vm.YearRange = vm.Yearly[0].Year + "-" + vm.Yearly[n-1].Year
	}

	vm.Subsectors = RankSubsectors(data.SubsectorBreakdown, data.TopEmittingSubsector)
	for i := range vm.Subsectors {
		if vm.Subsectors[i].IsTopEmitter {
			row := vm.Subsectors[i]
			vm.TopEmitter = &row
			vm.TopEmitterMismatch = row.Rank != 1
			break
		}
	}
	switch {
	case vm.TopEmitter != nil:
		vm.TopEmitterName = vm.TopEmitter.Name
	case data.TopEmittingSubsector != "":
		vm.TopEmitterName = emissions.DisplayName(data.TopEmittingSubsector)
		vm.TopEmitterMismatch = len(vm.Subsectors) > 0
	}
	vm.TopTrend = topTrend(data)
	vm.Ratios = GasRatios(data.Ratios)
	return vm
}

// SortedYears orders a year-keyed map numerically ascending.
func SortedYears(totals map[string]float64) []YearPoint {
	points := make([]YearPoint, 0, len(totals))
	for year, value := range totals {
		points = append(points, YearPoint{Year: year, Value: value})
	}
	sort.Slice(points, func(i, j int) bool {
		a, errA := strconv.Atoi(points[i].Year)
		b, errB := strconv.Atoi(points[j].Year)
		if errA != nil || errB != nil || a == b {
			return points[i].Year < points[j].Year
		}
		return a < b
	})
	return points
}

// YoYChange compares the two most recent years. It is 0 with fewer than two years or a
// non-positive previous year.
func YoYChange(points []YearPoint) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	prev, latest := points[n-2].Value, points[n-1].Value
	if prev <= 0 {
		return 0
	}
	return (latest - prev) / prev * 100
}

// AverageGrowth spreads the first-to-last growth evenly over the intervening years.
func AverageGrowth(points []YearPoint) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}
	first, last := points[0].Value, points[n-1].Value
	if first <= 0 {
		return 0
	}
	return ((last - first) / first * 100) / float64(n-1)
}

// Peak returns the year with the highest total. The earliest year wins ties.
func Peak(points []YearPoint) (YearPoint, bool) {
	best := YearPoint{Value: math.Inf(-1)}
	found := false
	for _, p := range points {
		if p.Value > best.Value {
			best = p
			found = true
		}
	}
	return best, found
}

// RankSubsectors sorts subsectors by percentage descending, keeping source order for ties,
// and assigns dense ranks from 1.
func RankSubsectors(breakdown emissions.Ordered[emissions.SubsectorStats], topEmitter string) []SubsectorRow {
	entries := make(emissions.Ordered[emissions.SubsectorStats], len(breakdown))
	copy(entries, breakdown)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value.Percentage > entries[j].Value.Percentage
	})
	rows := make([]SubsectorRow, len(entries))
	for i, e := range entries {
		rows[i] = SubsectorRow{
			Rank:          i + 1,
			Slug:          e.Key,
			Name:          emissions.DisplayName(e.Key),
			Percentage:    e.Value.Percentage,
			PercentLabel:  strconv.FormatFloat(e.Value.Percentage, 'f', -1, 64) + "%",
			TotalEmission: e.Value.TotalEmission,
			Tonnage:       emissions.FormatValue(e.Value.TotalEmission),
			IsTopEmitter:  e.Key == topEmitter,
			Color:         Palette[i%len(Palette)],
		}
	}
	return rows
}

// GasRatios keeps positive ratios, sorted descending with source order for ties.
func GasRatios(ratios emissions.Ordered[float64]) []GasShare {
	shares := make([]GasShare, 0, len(ratios))
	for _, e := range ratios {
		if e.Value <= 0 {
			continue
		}
		color, ok := GasColors[e.Key]
		if !ok {
			color = FallbackGasColor
		}
		shares = append(shares, GasShare{Gas: e.Key, Label: emissions.GasLabel(e.Key), Color: color, Ratio: e.Value})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Ratio > shares[j].Ratio })
	return shares
}

func topTrend(data *emissions.HistoricalData) *TrendSeries {
	if data.TopEmittingSubsector == "" {
		return nil
	}
	stats, ok := data.SubsectorBreakdown.Get(data.TopEmittingSubsector)
	if !ok || len(stats.YearlyEmission) == 0 {
		return nil
	}
	name := emissions.DisplayName(data.TopEmittingSubsector)
	return &TrendSeries{
		Slug:       data.TopEmittingSubsector,
		Label:      fmt.Sprintf("%s (%.1f%%)", name, stats.Percentage),
		Percentage: stats.Percentage,
		Points:     SortedYears(stats.YearlyEmission),
	}
}
