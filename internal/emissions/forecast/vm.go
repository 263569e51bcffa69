package forecast

// GasEntry is one gas of the forecast composition.
type GasEntry struct {
	Gas      string  `json:"gas" yaml:"gas"`
	Label    string  `json:"label" yaml:"label"`
	Palette  Palette `json:"palette" yaml:"palette"`
	Ratio    float64 `json:"ratio" yaml:"ratio"`
	Absolute float64 `json:"absolute" yaml:"absolute"`
}

// GasValue is a subsector's estimated share of one gas.
type GasValue struct {
	Gas            string  `json:"gas" yaml:"gas"`
	Ratio          float64 `json:"ratio" yaml:"ratio"`
	SubsectorValue float64 `json:"subsector_value" yaml:"subsector_value"`
	MonthlyValue   float64 `json:"monthly_value" yaml:"monthly_value"`
}

// Value picks the figure shown for mode.
func (g GasValue) Value(mode Mode) float64 {
	if mode == ModeAnnual {
		return g.SubsectorValue
	}
	return g.MonthlyValue
}

// SubsectorRow is one subsector with its per-gas split.
type SubsectorRow struct {
	Name          string     `json:"name" yaml:"name"`
	DisplayName   string     `json:"display_name" yaml:"display_name"`
	MonthlyValue  float64    `json:"monthly_value" yaml:"monthly_value"`
	AnnualTotal   float64    `json:"annual_total" yaml:"annual_total"`
	ShareOfTotal  float64    `json:"share_of_total" yaml:"share_of_total"`
	GasValues     []GasValue `json:"gas_values" yaml:"gas_values"`
	MonthlyValues []float64  `json:"monthly_values" yaml:"monthly_values"`
}

// Value picks the subsector total shown for mode.
func (r SubsectorRow) Value(mode Mode) float64 {
	if mode == ModeAnnual {
		return r.AnnualTotal
	}
	return r.MonthlyValue
}

// ComparisonSeries is one gas across the top subsectors.
type ComparisonSeries struct {
	Gas    string    `json:"gas" yaml:"gas"`
	Label  string    `json:"label" yaml:"label"`
	Color  string    `json:"color" yaml:"color"`
	Values []float64 `json:"values" yaml:"values"`
}

// Comparison is the grouped bar chart of gases per top subsector.
type Comparison struct {
	Title  string             `json:"title" yaml:"title"`
	Period string             `json:"period" yaml:"period"`
	Labels []string           `json:"labels" yaml:"labels"`
	Series []ComparisonSeries `json:"series" yaml:"series"`
}

// ViewModel carries everything the prediction page renders.
type ViewModel struct {
	View View `json:"view" yaml:"view"`

	Country      string  `json:"country" yaml:"country"`
	Sector       string  `json:"sector" yaml:"sector"`
	Year         int     `json:"year" yaml:"year"`
	YearLabel    string  `json:"year_label" yaml:"year_label"`
	Gas          string  `json:"gas" yaml:"gas"`
	GasLabel     string  `json:"gas_label" yaml:"gas_label"`
	Palette      Palette `json:"palette" yaml:"palette"`
	Title        string  `json:"title" yaml:"title"`
	DatasetLabel string  `json:"dataset_label" yaml:"dataset_label"`

	MonthLabels    []string  `json:"month_labels" yaml:"month_labels"`
	Monthly        []float64 `json:"monthly" yaml:"monthly"`
	TotalEmissions float64   `json:"total_emissions" yaml:"total_emissions"`
	// PeakMonth is the highest of the twelve normalised months, labelled by PeakMonthLabel.
	PeakMonth      float64 `json:"peak_month" yaml:"peak_month"`
	PeakMonthLabel string  `json:"peak_month_label" yaml:"peak_month_label"`
	AverageMonthly float64 `json:"average_monthly" yaml:"average_monthly"`

	Composition   []GasEntry `json:"composition" yaml:"composition"`
	TotalCombined float64    `json:"total_combined" yaml:"total_combined"`

	Comparison Comparison     `json:"comparison" yaml:"comparison"`
	Details    []SubsectorRow `json:"details" yaml:"details"`

	Insights string `json:"insights" yaml:"insights"`
}

// PeriodLabel names the column of the detail table.
func (vm ViewModel) PeriodLabel() string {
	return "Total " + vm.Comparison.Period
}
