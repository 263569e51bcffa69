package emissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field to a user-facing message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

// Validator checks queries against the catalog and the clock-dependent year windows.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator builds a Validator. A nil clock defaults to time.Now.
func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}
	_ = v.validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return IsRegion(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("sector", func(fl validator.FieldLevel) bool {
		return IsSector(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("gas", func(fl validator.FieldLevel) bool {
		return IsGas(fl.Field().String())
	})
	v.validate.RegisterStructValidation(v.historicalYears, HistoricalQuery{})
	v.validate.RegisterStructValidation(v.forecastYear, ForecastQuery{})
	return v
}

// Now exposes the validator clock.
func (v *Validator) Now() time.Time {
	return v.now()
}

// Historical validates q. The returned error is FieldErrors when the query is rejected.
func (v *Validator) Historical(q HistoricalQuery) error {
	return v.check(q)
}

// Forecast validates q. The returned error is FieldErrors when the query is rejected.
func (v *Validator) Forecast(q ForecastQuery) error {
	return v.check(q)
}

func (v *Validator) historicalYears(sl validator.StructLevel) {
	q := sl.Current().Interface().(HistoricalQuery)
	last := v.now().Year() - 1
	if q.StartYear < FirstHistoricalYear || q.StartYear > last {
		sl.ReportError(q.StartYear, "StartYear", "StartYear", "yearrange", "")
	}
	if q.EndYear < FirstHistoricalYear || q.EndYear > last {
		sl.ReportError(q.EndYear, "EndYear", "EndYear", "yearrange", "")
	}
}

func (v *Validator) forecastYear(sl validator.StructLevel) {
	q := sl.Current().Interface().(ForecastQuery)
	first := v.now().Year()
	if q.Year < first || q.Year > first+ForecastHorizon {
		sl.ReportError(q.Year, "Year", "Year", "yearrange", "")
	}
}

func (v *Validator) check(q any) error {
	err := v.validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = v.message(fe)
	}
	return out
}

func (v *Validator) message(fe validator.FieldError) string {
	now := v.now()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "region":
		return "is not a supported region"
	case "sector":
		return "is not a supported sector"
	case "gas":
		return "is not a supported gas"
	case "gtefield":
		return "must not be before the start year"
	case "min", "max":
		return "must be between 1 and 12"
	case "yearrange":
		if fe.Field() == "Year" {
			return fmt.Sprintf("must be between %d and %d", now.Year(), now.Year()+ForecastHorizon)
		}
		return fmt.Sprintf("must be between %d and %d", FirstHistoricalYear, now.Year()-1)
	default:
		return fe.Error()
	}
}
