package emissions

// SubsectorStats is one subsector of the historical breakdown.
type SubsectorStats struct {
	TotalEmission  float64            `json:"total_emission"`
	Percentage     float64            `json:"percentage"`
	YearlyEmission map[string]float64 `json:"yearly_emission"`
}

// HistoricalData is the "data" member of the historical response.
type HistoricalData struct {
	YearlyTotals         map[string]float64      `json:"yearly_totals" validate:"required,dive,keys,number,endkeys"`
	GasName              string                  `json:"gas_name"`
	SectorName           string                  `json:"sector_name"`
	TotalEmissionOverall float64                 `json:"total_emission_overall"`
	SubsectorBreakdown   Ordered[SubsectorStats] `json:"subsector_breakdown" validate:"dive"`
	TopEmittingSubsector string                  `json:"top_emitting_subsector"`
	Ratios               Ordered[float64]        `json:"ratios" validate:"dive"`
}

// HistoricalResult is the decoded historical response.
type HistoricalResult struct {
	Data        *HistoricalData `json:"data" validate:"required"`
	LLMInsights string          `json:"llm_insights"`
}

// IsEmpty reports whether the result carries no yearly data to chart.
func (r HistoricalResult) IsEmpty() bool {
	return r.Data == nil || len(r.Data.YearlyTotals) == 0
}

// ForecastMeta echoes the request parameters the model ran with.
type ForecastMeta struct {
	Country      string `json:"country"`
	Sector       string `json:"sector"`
	Year         int    `json:"year"`
	RequestedGas string `json:"requested_gas"`
	Gas          string `json:"gas,omitempty"`
}

// GasComposition splits the forecast total across gases.
type GasComposition struct {
	Ratios         map[string]float64 `json:"ratios" validate:"required"`
	AbsoluteTotals map[string]float64 `json:"absolute_totals" validate:"required"`
	TotalCombined  float64            `json:"total_combined"`
}

// SubsectorForecast is one subsector of the forecast breakdown.
type SubsectorForecast struct {
	Name    string    `json:"name" validate:"required"`
	Total   float64   `json:"total"`
	Monthly []float64 `json:"monthly"`
}

// ForecastData is the "data" member of the predict response.
type ForecastData struct {
	TotalEmissions     float64             `json:"total_emissions"`
	MonthlyTrends      []float64           `json:"monthly_trends" validate:"required"`
	SubsectorBreakdown []SubsectorForecast `json:"subsector_breakdown" validate:"dive"`
	GasComposition     *GasComposition     `json:"gas_composition" validate:"required"`
}

// ForecastResult is the decoded predict response.
type ForecastResult struct {
	Status      string        `json:"status,omitempty"`
	Meta        ForecastMeta  `json:"meta"`
	Data        *ForecastData `json:"data" validate:"required"`
	LLMInsights string        `json:"llm_insights"`
}

// IsEmpty reports whether the forecast carries neither a monthly series nor subsectors.
func (r ForecastResult) IsEmpty() bool {
	return r.Data == nil || (len(r.Data.MonthlyTrends) == 0 && len(r.Data.SubsectorBreakdown) == 0)
}

// RequestedGas returns the gas the forecast was computed for.
func (r ForecastResult) RequestedGas() string {
	switch {
	case r.Meta.RequestedGas != "":
		return r.Meta.RequestedGas
	case r.Meta.Gas != "":
		return r.Meta.Gas
	default:
		return GasCO2
	}
}
