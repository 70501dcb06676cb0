package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reThousands = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)

// ParsePercent coerces a cell value to a number. A trailing "%" and a lone
// decimal comma are accepted; anything else non-numeric reports ok=false.
func ParsePercent(input string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, false
	}
	s = normalizeNumericToken(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if reThousands.MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Count(compact, ",") == 1 && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
