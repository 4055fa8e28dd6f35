package entity

import "strings"

// SiteProfile 사업장 개요
type SiteProfile struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Industry        string `json:"industry"`
	PreliminaryDate string `json:"preliminary_date"`
	MainDate        string `json:"main_date"`
	Organization    string `json:"organization"`
	Investigator    string `json:"investigator"`
}

// Flag 부담작업 해당 여부
type Flag string

const (
	FlagApplicable    Flag = "applicable"
	FlagPotential     Flag = "potentially-applicable"
	FlagNotApplicable Flag = "not-applicable"
)

// Valid reports whether f is one of the three checklist states.
func (f Flag) Valid() bool {
	switch f {
	case FlagApplicable, FlagPotential, FlagNotApplicable:
		return true
	}
	return false
}

// Mark 체크리스트 표기 (O / △ / X)
func (f Flag) Mark() string {
	switch f {
	case FlagApplicable:
		return "O"
	case FlagPotential:
		return "△"
	default:
		return "X"
	}
}

// ParseFlag accepts the canonical state names as well as the marks used on
// the paper checklist. An empty cell means not applicable.
func ParseFlag(s string) (Flag, bool) {
	switch strings.TrimSpace(s) {
	case string(FlagApplicable), "O", "o", "○", "●", "해당":
		return FlagApplicable, true
	case string(FlagPotential), "△", "▲", "잠재", "잠재위험":
		return FlagPotential, true
	case string(FlagNotApplicable), "", "X", "x", "×", "미해당":
		return FlagNotApplicable, true
	}
	return "", false
}

// ChecklistRow 근골격계 부담작업 체크리스트 행
type ChecklistRow struct {
	ID         string `json:"id"`
	TaskID     string `json:"task_id"`
	Department string `json:"department"`
	Team       string `json:"team"`
	UnitName   string `json:"unit_name"`
	DailyHours string `json:"daily_hours"`
	WeightKg   string `json:"weight_kg"`
	Flags      []Flag `json:"flags"`
}

// Flag 항목(1부터)의 해당 여부, 범위 밖이면 미해당
func (r *ChecklistRow) Flag(category int) Flag {
	if category < 1 || category > len(r.Flags) {
		return FlagNotApplicable
	}
	return r.Flags[category-1]
}

// SetFlag grows Flags as needed so every category up to the given one holds
// a state.
func (r *ChecklistRow) SetFlag(category int, f Flag) {
	for len(r.Flags) < category {
		r.Flags = append(r.Flags, FlagNotApplicable)
	}
	r.Flags[category-1] = f
}

// NormalizeFlags pads or trims Flags to exactly n entries.
func (r *ChecklistRow) NormalizeFlags(n int) {
	for len(r.Flags) < n {
		r.Flags = append(r.Flags, FlagNotApplicable)
	}
	r.Flags = r.Flags[:n]
}

// WorkConditionRow 작업조건 조사 행
type WorkConditionRow struct {
	ID             string `json:"id"`
	ChecklistRowID string `json:"checklist_row_id,omitempty"`
	UnitName       string `json:"unit_name"`
	Categories     string `json:"categories"`
	Workload       string `json:"workload"`
	Frequency      string `json:"frequency"`
	TotalScore     int    `json:"total_score"`
}

// WorkConditionTable 작업별 작업조건 조사표
type WorkConditionTable struct {
	TaskID string             `json:"task_id"`
	Rows   []WorkConditionRow `json:"rows"`
}

// CauseAnalysisRow 원인분석 행
type CauseAnalysisRow struct {
	ID                 string `json:"id"`
	WorkConditionRowID string `json:"work_condition_row_id,omitempty"`
	No                 int    `json:"no"`
	UnitName           string `json:"unit_name"`
	HazardFactor       string `json:"hazard_factor"`
	BurdenTask         string `json:"burden_task"`
	Cause              string `json:"cause"`
	Remarks            string `json:"remarks"`
}

// CauseAnalysisTable 작업별 원인분석표 (7행 고정)
type CauseAnalysisTable struct {
	TaskID string             `json:"task_id"`
	Rows   []CauseAnalysisRow `json:"rows"`
}

// ImprovementRow 개선계획 행
type ImprovementRow struct {
	ID             string `json:"id"`
	Process        string `json:"process"`
	Task           string `json:"task"`
	UnitName       string `json:"unit_name"`
	ProblemCause   string `json:"problem_cause"`
	WorkerFeedback string `json:"worker_feedback"`
	Plan           string `json:"plan"`
	Schedule       string `json:"schedule"`
	Cost           string `json:"cost"`
	Priority       string `json:"priority"`
}
