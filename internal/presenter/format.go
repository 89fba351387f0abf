// Package presenter turns a PropertyRecord into a grouped, human-readable view.
package presenter

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/stwalsh4118/property-analyzer/internal/models"
)

// NotMentioned is displayed for null or absent values.
const NotMentioned = "Not Mentioned"

const (
	priceMarker = "price"
	areaField   = "area"
	areaSuffix  = " sqft"
)

// maxSafeInteger bounds the values formatted through the int64 path.
const maxSafeInteger = 1 << 53

var printer = message.NewPrinter(language.AmericanEnglish)

// Normalize converts a snake_case field name into a display label:
// underscores become spaces and every word starts with an upper-case letter.
// The remaining letters are left untouched.
func Normalize(field string) string {
	var b strings.Builder
	b.Grow(len(field))

	prevWord := false
	for _, r := range field {
		if r == '_' {
			r = ' '
		}
		word := isWordChar(r)
		if word && !prevWord && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// FormatValue renders a single field value. Rules are applied in order:
// null, boolean, price-like numbers, area, and finally the raw value.
func FormatValue(field string, v models.Value) string {
	if v.IsNull() {
		return NotMentioned
	}
	if b, ok := v.AsBool(); ok {
		if b {
			return "Yes"
		}
		return "No"
	}
	if n, ok := v.AsNumber(); ok {
		if strings.Contains(field, priceMarker) {
			return formatCurrency(n)
		}
		if field == areaField {
			return formatGrouped(n) + areaSuffix
		}
	}
	return v.Raw()
}

// FormatField looks up field in record and formats it; absent keys read as null.
func FormatField(record models.PropertyRecord, field string) string {
	v, _ := record.Get(field)
	return FormatValue(field, v)
}

// formatCurrency prints n as whole US dollars, e.g. $1,250,000 or -$300.
func formatCurrency(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return models.Number(n).Raw()
	}
	rounded := math.Round(n)
	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}
	return sign + "$" + formatGrouped(rounded)
}

// formatGrouped prints n with en-US thousands separators and at most three
// fraction digits.
func formatGrouped(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return models.Number(n).Raw()
	}
	if n == math.Trunc(n) && math.Abs(n) < maxSafeInteger {
		return printer.Sprintf("%d", int64(n))
	}
	return printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}
