package emissions

import "time"

// Bounds for the selectable year ranges.
const (
	FirstHistoricalYear = 2015
	ForecastHorizon     = 30
)

// HistoricalQuery filters the historical endpoint. The JSON form is the wire payload.
type HistoricalQuery struct {
	Country   string `json:"country" yaml:"country" validate:"required,region"`
	Sector    string `json:"sector_name" yaml:"sector_name" validate:"required,sector"`
	Gas       string `json:"gas_name" yaml:"gas_name" validate:"required,gas"`
	StartYear int    `json:"start_year" yaml:"start_year" validate:"required"`
	EndYear   int    `json:"end_year" yaml:"end_year" validate:"required,gtefield=StartYear"`
}

// ForecastQuery configures the predict endpoint. The JSON form is the wire payload.
type ForecastQuery struct {
	Country string `json:"country" yaml:"country" validate:"required,region"`
	Sector  string `json:"sector" yaml:"sector" validate:"required,sector"`
	Gas     string `json:"gas" yaml:"gas" validate:"required,gas"`
	Year    int    `json:"year" yaml:"year" validate:"required"`
	Month   int    `json:"month" yaml:"month" validate:"min=1,max=12"`
}

// DefaultHistoricalQuery is the query issued when the dashboard first mounts.
func DefaultHistoricalQuery() HistoricalQuery {
	return HistoricalQuery{
		Country:   "PAK",
		Sector:    "transportation",
		Gas:       GasCO2,
		StartYear: 2020,
		EndYear:   2024,
	}
}

// DefaultForecastQuery is the query issued when the prediction page first mounts.
func DefaultForecastQuery(now time.Time) ForecastQuery {
	return ForecastQuery{
		Country: "PAK",
		Sector:  "transportation",
		Gas:     GasCO2,
		Year:    now.Year(),
		Month:   1,
	}
}

// HistoricalYears returns the selectable historical years, oldest first.
func HistoricalYears(now time.Time) []int {
	last := now.Year() - 1
	years := make([]int, 0, last-FirstHistoricalYear+1)
	for y := FirstHistoricalYear; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// ForecastYears returns the selectable forecast years starting at the current year.
func ForecastYears(now time.Time) []int {
	first := now.Year()
	years := make([]int, 0, ForecastHorizon+1)
	for i := 0; i <= ForecastHorizon; i++ {
		years = append(years, first+i)
	}
	return years
}

// MonthNames lists full month names, January first.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the full name of month (1..12), or an empty string.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return MonthNames[month-1]
}

// MonthAbbrevs returns Jan..Dec.
func MonthAbbrevs() []string {
	out := make([]string, len(MonthNames))
	for i, name := range MonthNames {
		out[i] = name[:3]
	}
	return out
}
