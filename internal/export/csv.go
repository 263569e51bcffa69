// Package export turns loaded dashboard results into downloadable files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
)

// WriteHistoricalCSV writes the summary, yearly totals and ranked subsectors of vm.
// Sections are separated by a blank record.
func WriteHistoricalCSV(w io.Writer, vm historical.DashboardViewModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	records := [][]string{
		{"Metric", "Value"},
		{"Sector", vm.SectorLabel},
		{"Gas", vm.GasLabel},
		{"Years", vm.YearRange},
		{"Total Emission", formatFloat(vm.TotalEmission)},
		{"Year over Year Change (%)", formatFloat(vm.YoYChange)},
		{"Average Growth (%)", formatFloat(vm.AverageGrowth)},
		{"Peak Year", vm.PeakYear},
		{"Peak Emission", formatFloat(vm.PeakValue)},
		{},
		{"Year", "Emission"},
	}
	for _, point := range vm.Yearly {
		records = append(records, []string{point.Year, formatFloat(point.Value)})
	}
	records = append(records, []string{}, []string{"Rank", "Subsector", "Share (%)", "Emission", "Top Emitter"})
	for _, row := range vm.Subsectors {
		records = append(records, []string{
			strconv.Itoa(row.Rank),
			row.Name,
			formatFloat(row.Percentage),
			formatFloat(row.TotalEmission),
			strconv.FormatBool(row.IsTopEmitter),
		})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
