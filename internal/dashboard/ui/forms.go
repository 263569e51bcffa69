package ui

import (
	"errors"
	"strconv"
	"time"

	"github.com/ghg-insights/ghg-dashboard/internal/emissions"
)

// NewFilterForm fills the historical filter panel for q. err is the validation error of a
// rejected submission and may be nil.
func NewFilterForm(q emissions.HistoricalQuery, now time.Time, err error) FilterForm {
	return FilterForm{
		Query:   q,
		Regions: emissions.Regions(),
		Sectors: emissions.Sectors(),
		Gases:   emissions.Gases(),
		Years:   emissions.HistoricalYears(now),
		Errors:  fieldErrors(err),
	}
}

// NewConfigForm fills the forecast configuration panel for q.
func NewConfigForm(q emissions.ForecastQuery, now time.Time, err error) ConfigForm {
	return ConfigForm{
		Query:   q,
		Regions: emissions.Regions(),
		Sectors: emissions.Sectors(),
		Gases:   emissions.Gases(),
		Years:   emissions.ForecastYears(now),
		Months:  MonthOptions(),
		Errors:  fieldErrors(err),
	}
}

// MonthOptions lists 1..12 with their full names.
func MonthOptions() []emissions.Option {
	out := make([]emissions.Option, 0, len(emissions.MonthNames))
	for i, name := range emissions.MonthNames {
		out = append(out, emissions.Option{Value: strconv.Itoa(i + 1), Label: name})
	}
	return out
}

func fieldErrors(err error) map[string]string {
	var fe emissions.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
