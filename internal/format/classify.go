package format

import (
	"math"
	"strings"

	"github.com/odyssey-erp/lead-insights/internal/shared"
)

// Tier is the score band derived from the numeric total score.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

const (
	hotThreshold  = 80
	warmThreshold = 60
)

// ClassifyGrade maps a lead grade label onto a badge variant. The mapping is
// closed: anything other than Hot or Warm is an error variant.
func ClassifyGrade(grade string) shared.Variant {
	switch grade {
	case "Hot":
		return shared.VariantSuccess
	case "Warm":
		return shared.VariantWarning
	default:
		return shared.VariantError
	}
}

// ClassifyScoreTier parses the leading integer of an already formatted score
// and bands it. Unparsable input counts as zero.
func ClassifyScoreTier(display string) Tier {
	return TierForScore(float64(leadingInt(display)))
}

// TierForScore bands a raw score. Boundaries belong to the higher tier.
func TierForScore(score float64) Tier {
	switch {
	case math.IsNaN(score):
		return TierCold
	case score >= hotThreshold:
		return TierHot
	case score >= warmThreshold:
		return TierWarm
	default:
		return TierCold
	}
}

// ProgressBarClass returns the CSS classes for a score progress bar.
func ProgressBarClass(t Tier) string {
	return "progress-bar progress-" + string(t)
}

// ProgressWidth returns the inline width style for a formatted score.
func ProgressWidth(display string) string {
	return "width: " + display + "%"
}

// leadingInt reads an optional sign and the digits that follow, ignoring
// leading whitespace and anything after the digits.
func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		if n > math.MaxInt64/10-1 {
			break
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		return -n
	}
	return n
}
