package emissions

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatValue abbreviates an emission amount: millions as M, thousands as K, two decimals.
func FormatValue(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fK", v/1_000)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// FormatTons is FormatValue with the unit suffix used in tables.
func FormatTons(v float64) string {
	return FormatValue(v) + " tons"
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// SignedPercent renders a percentage change with an explicit sign and two decimals.
func SignedPercent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

var numberPrinter = message.NewPrinter(language.English)

// LocaleNumber renders v with thousands separators and at most two decimals.
func LocaleNumber(v float64) string {
	if v == float64(int64(v)) {
		return numberPrinter.Sprintf("%d", int64(v))
	}
	return numberPrinter.Sprintf("%.2f", v)
}

// LocaleTotal renders v with thousands separators and at most one decimal.
func LocaleTotal(v float64) string {
	r := math.Round(v*10) / 10
	if r == math.Trunc(r) {
		return numberPrinter.Sprintf("%d", int64(r))
	}
	return numberPrinter.Sprintf("%.1f", r)
}

// DisplayName turns a slug such as "road-transport" into "Road Transport".
// Only the first letter of each word changes case.
func DisplayName(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
