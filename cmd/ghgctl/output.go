package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/forecast"
	"github.com/ghg-insights/ghg-dashboard/internal/emissions/historical"
	"github.com/ghg-insights/ghg-dashboard/internal/gateway"
	"github.com/ghg-insights/ghg-dashboard/internal/insight"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// encode writes v as JSON or YAML. It reports false for the text format.
func encode(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func printMessage(w io.Writer, format string, resp gateway.AuthResponse) error {
	if done, err := encode(w, format, resp); done {
		return err
	}
	_, err := fmt.Fprintln(w, resp.Message)
	return err
}

func printHistorical(w io.Writer, format string, vm historical.DashboardViewModel) error {
	if done, err := encode(w, format, vm); done {
		return err
	}
	return writeHistoricalText(w, vm)
}

func printForecast(w io.Writer, format string, vm forecast.ViewModel) error {
	if done, err := encode(w, format, vm); done {
		return err
	}
	return writeForecastText(w, vm)
}

func printOverview(w io.Writer, format string, o Overview) error {
	if done, err := encode(w, format, o); done {
		return err
	}
	if err := writeHistoricalText(w, o.Historical); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return writeForecastText(w, o.Forecast)
}

func writeHistoricalText(w io.Writer, vm historical.DashboardViewModel) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s %s emissions, %s\n\n", vm.SectorLabel, vm.GasLabel, vm.YearRange)
	fmt.Fprintf(tw, "Total\t%s\n", emissions.FormatTons(vm.TotalEmission))
	fmt.Fprintf(tw, "Year over year\t%s\n", emissions.SignedPercent(vm.YoYChange))
	fmt.Fprintf(tw, "Average growth\t%s\n", emissions.SignedPercent(vm.AverageGrowth))
	if vm.PeakYear != "" {
		fmt.Fprintf(tw, "Peak\t%s (%s)\n", vm.PeakYear, emissions.FormatTons(vm.PeakValue))
	}
	if len(vm.Yearly) > 0 {
		fmt.Fprintln(tw, "\nYear\tEmission")
		for _, p := range vm.Yearly {
			fmt.Fprintf(tw, "%s\t%s\n", p.Year, emissions.FormatValue(p.Value))
		}
	}
	if len(vm.Subsectors) > 0 {
		fmt.Fprintln(tw, "\nRank\tSubsector\tShare\tEmission")
		for _, row := range vm.Subsectors {
			name := row.Name
			if row.IsTopEmitter {
				name += " *"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.Rank, name, row.PercentLabel, row.Tonnage)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeInsights(w, vm.Insights)
}

func writeForecastText(w io.Writer, vm forecast.ViewModel) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n\n", vm.Title)
	fmt.Fprintf(tw, "Total\t%s\n", emissions.FormatTons(vm.TotalEmissions))
	fmt.Fprintf(tw, "Peak month\t%s (%s)\n", vm.PeakMonthLabel, emissions.FormatTons(vm.PeakMonth))
	fmt.Fprintf(tw, "Average monthly\t%s\n", emissions.FormatTons(vm.AverageMonthly))
	if vm.TotalCombined > 0 {
		fmt.Fprintf(tw, "Total combined\t%s\n", emissions.FormatTons(vm.TotalCombined))
	}
	if len(vm.Composition) > 0 {
		parts := make([]string, 0, len(vm.Composition))
		for _, g := range vm.Composition {
			parts = append(parts, fmt.Sprintf("%s %s", g.Label, emissions.FormatPercent(g.Ratio)))
		}
		fmt.Fprintf(tw, "Composition\t%s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintln(tw, "\nMonth\tEmission")
	for i, v := range vm.Monthly {
		label := ""
		if i < len(vm.MonthLabels) {
			label = vm.MonthLabels[i]
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, emissions.FormatValue(v))
	}
	if len(vm.Details) > 0 {
		fmt.Fprintf(tw, "\nSubsector\tShare\t%s\n", vm.PeriodLabel())
		for _, row := range vm.Details {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.DisplayName, emissions.FormatPercent(row.ShareOfTotal), emissions.FormatValue(row.Value(vm.View.Mode)))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeInsights(w, vm.Insights)
}

func writeInsights(w io.Writer, text string) error {
	plain := strings.TrimSpace(insight.Plain(text))
	if plain == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nInsights\n%s\n", plain)
	return err
}
