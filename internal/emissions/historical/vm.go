package historical

// YearPoint is one year of a yearly series.
type YearPoint struct {
	Year  string  `json:"year" yaml:"year"`
	Value float64 `json:"value" yaml:"value"`
}

// SubsectorRow is one ranked entry of the subsector table.
type SubsectorRow struct {
	Rank          int     `json:"rank" yaml:"rank"`
	Slug          string  `json:"slug" yaml:"slug"`
	Name          string  `json:"name" yaml:"name"`
	Percentage    float64 `json:"percentage" yaml:"percentage"`
	PercentLabel  string  `json:"percent_label" yaml:"percent_label"`
	TotalEmission float64 `json:"total_emission" yaml:"total_emission"`
	Tonnage       string  `json:"tonnage" yaml:"tonnage"`
	IsTopEmitter  bool    `json:"is_top_emitter" yaml:"is_top_emitter"`
	Color         string  `json:"color" yaml:"color"`
}

// GasShare is one slice of the gas ratio chart.
type GasShare struct {
	Gas   string  `json:"gas" yaml:"gas"`
	Label string  `json:"label" yaml:"label"`
	Color string  `json:"color" yaml:"color"`
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// TrendSeries is the yearly series of the top emitting subsector.
type TrendSeries struct {
	Slug       string      `json:"slug" yaml:"slug"`
	Label      string      `json:"label" yaml:"label"`
	Percentage float64     `json:"percentage" yaml:"percentage"`
	Points     []YearPoint `json:"points" yaml:"points"`
}

// DashboardViewModel carries everything the dashboard renders for one result.
type DashboardViewModel struct {
	Sector       string `json:"sector" yaml:"sector"`
	SectorLabel  string `json:"sector_label" yaml:"sector_label"`
	Gas          string `json:"gas" yaml:"gas"`
	GasLabel     string `json:"gas_label" yaml:"gas_label"`
	YearRange    string `json:"year_range" yaml:"year_range"`
	DatasetLabel string `json:"dataset_label" yaml:"dataset_label"`

	TotalEmission float64     `json:"total_emission" yaml:"total_emission"`
	Yearly        []YearPoint `json:"yearly" yaml:"yearly"`

	YoYChange     float64 `json:"yoy_change" yaml:"yoy_change"`
	AverageGrowth float64 `json:"average_growth" yaml:"average_growth"`
	PeakYear      string  `json:"peak_year" yaml:"peak_year"`
	PeakValue     float64 `json:"peak_value" yaml:"peak_value"`
	LatestYear    string  `json:"latest_year" yaml:"latest_year"`
	LatestValue   float64 `json:"latest_value" yaml:"latest_value"`

	Subsectors []SubsectorRow `json:"subsectors" yaml:"subsectors"`
	// TopEmitter is the row named by the API, which may not be rank 1.
	TopEmitter *SubsectorRow `json:"top_emitter,omitempty" yaml:"top_emitter,omitempty"`

	// TopEmitterName is set even when the named subsector is missing from the breakdown.
	TopEmitterName     string       `json:"top_emitter_name,omitempty" yaml:"top_emitter_name,omitempty"`
	TopEmitterMismatch bool         `json:"top_emitter_mismatch" yaml:"top_emitter_mismatch"`
	TopTrend           *TrendSeries `json:"top_trend,omitempty" yaml:"top_trend,omitempty"`

	Ratios   []GasShare `json:"ratios" yaml:"ratios"`
	Insights string     `json:"insights" yaml:"insights"`
}

// Labels returns the year labels of the yearly series.
func (vm DashboardViewModel) Labels() []string {
	return labels(vm.Yearly)
}

// Values returns the totals of the yearly series.
func (vm DashboardViewModel) Values() []float64 {
	return values(vm.Yearly)
}

func labels(points []YearPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Year
	}
	return out
}

func values(points []YearPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
