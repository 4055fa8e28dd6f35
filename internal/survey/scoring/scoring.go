// Package scoring derives burden scores and applicable burden categories
// from checklist and work-condition selections.
package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kaykim0310/wmsd-report/internal/survey/entity"
)

var ordinalSuffix = regexp.MustCompile(`\(([^()]*)\)\s*$`)

// ExtractOrdinal returns the integer in a trailing "(n)" suffix, such as the
// 3 in "약간 힘듦(3)". Labels without a parsable suffix score 0.
func ExtractOrdinal(label string) int {
	m := ordinalSuffix.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(m[1]))
	if err != nil {
		return 0
	}
	return n
}

// TotalScore 작업부하(A) × 작업빈도(B)
func TotalScore(workload, frequency string) int {
	return ExtractOrdinal(workload) * ExtractOrdinal(frequency)
}

// CategoryLabel "{n}호"
func CategoryLabel(n int) string {
	return strconv.Itoa(n) + "호"
}

// PotentialLabel "{n}호(잠재)"
func PotentialLabel(n int) string {
	return CategoryLabel(n) + "(잠재)"
}

// ApplicableCategories lists the applicable and potentially applicable
// categories in ascending order. Cause-analysis prefill relies on this order.
func ApplicableCategories(flags []entity.Flag) []string {
	var out []string
	for i, f := range flags {
		switch f {
		case entity.FlagApplicable:
			out = append(out, CategoryLabel(i+1))
		case entity.FlagPotential:
			out = append(out, PotentialLabel(i+1))
		}
	}
	return out
}

// CategorySummary 작업조건 조사표의 부담작업 표기 ("2호, 5호(잠재)")
func CategorySummary(flags []entity.Flag) string {
	return strings.Join(ApplicableCategories(flags), ", ")
}

// Band 총점 구간
type Band string

const (
	BandNone     Band = ""
	BandLow      Band = "낮음"
	BandMedium   Band = "보통"
	BandHigh     Band = "높음"
	BandVeryHigh Band = "매우높음"
)

// ScoreBand classifies a total score for report rendering. Unscored rows
// have no band.
func ScoreBand(score int) Band {
	switch {
	case score <= 0:
		return BandNone
	case score <= 4:
		return BandLow
	case score <= 9:
		return BandMedium
	case score <= 14:
		return BandHigh
	default:
		return BandVeryHigh
	}
}
