package entity

import (
	"strconv"
	"strings"
)

// SymptomSurvey 근골격계 증상조사 결과
type SymptomSurvey struct {
	Demographics []DemographicsRow `json:"demographics"`
	Tenure       []TenureRow       `json:"tenure"`
	BurdenLevels []BurdenLevelRow  `json:"burden_levels"`
	Pain         []PainTask        `json:"pain"`
}

// DemographicsRow 응답자 기초현황
type DemographicsRow struct {
	ID            string `json:"id"`
	TaskName      string `json:"task_name"`
	Respondents   string `json:"respondents"`
	Male          string `json:"male"`
	Female        string `json:"female"`
	AverageAge    string `json:"average_age"`
	AverageTenure string `json:"average_tenure"`
}

// TenureRow 근속기간별 인원
type TenureRow struct {
	ID        string `json:"id"`
	TaskName  string `json:"task_name"`
	Under1    string `json:"under_1"`
	From1To3  string `json:"from_1_to_3"`
	From3To5  string `json:"from_3_to_5"`
	From5To10 string `json:"from_5_to_10"`
	Over10    string `json:"over_10"`
	Total     string `json:"total"`
}

// Recount 합계 재계산
func (r *TenureRow) Recount() {
	r.Total = SumCells(r.Under1, r.From1To3, r.From3To5, r.From5To10, r.Over10)
}

// BurdenLevelRow 육체적 부담정도별 인원
type BurdenLevelRow struct {
	ID        string `json:"id"`
	TaskName  string `json:"task_name"`
	None      string `json:"none"`
	Tolerable string `json:"tolerable"`
	Slight    string `json:"slight"`
	Hard      string `json:"hard"`
	VeryHard  string `json:"very_hard"`
	Total     string `json:"total"`
}

// Recount 합계 재계산
func (r *BurdenLevelRow) Recount() {
	r.Total = SumCells(r.None, r.Tolerable, r.Slight, r.Hard, r.VeryHard)
}

// PainGroup 통증호소 구분
type PainGroup string

const (
	PainNormal      PainGroup = "normal"
	PainAtRisk      PainGroup = "at-risk"
	PainSymptomatic PainGroup = "symptomatic"
)

// PainGroups 작업마다 고정된 3개 구분
var PainGroups = []PainGroup{PainNormal, PainAtRisk, PainSymptomatic}

// Label 표시 이름
func (g PainGroup) Label() string {
	switch g {
	case PainNormal:
		return "정상"
	case PainAtRisk:
		return "관리대상자"
	case PainSymptomatic:
		return "통증호소자"
	}
	return string(g)
}

// Valid reports whether g is one of the fixed groups.
func (g PainGroup) Valid() bool {
	for _, v := range PainGroups {
		if v == g {
			return true
		}
	}
	return false
}

// PainRow 신체부위별 통증호소 인원
type PainRow struct {
	Group    PainGroup `json:"group"`
	Neck     string    `json:"neck"`
	Shoulder string    `json:"shoulder"`
	Elbow    string    `json:"elbow"`
	Wrist    string    `json:"wrist"`
	Back     string    `json:"back"`
	Leg      string    `json:"leg"`
	Total    string    `json:"total"`
}

// Recount 합계 재계산
func (r *PainRow) Recount() {
	r.Total = SumCells(r.Neck, r.Shoulder, r.Elbow, r.Wrist, r.Back, r.Leg)
}

// PainTask 작업별 통증호소자 현황
type PainTask struct {
	ID       string    `json:"id"`
	TaskName string    `json:"task_name"`
	Rows     []PainRow `json:"rows"`
}

// NewPainTask 3개 구분 행을 가진 작업 생성
func NewPainTask(taskName string) PainTask {
	p := PainTask{ID: NewID(), TaskName: taskName}
	for _, g := range PainGroups {
		p.Rows = append(p.Rows, PainRow{Group: g})
	}
	return p
}

// Row 구분별 행
func (p *PainTask) Row(g PainGroup) (*PainRow, bool) {
	for i := range p.Rows {
		if p.Rows[i].Group == g {
			return &p.Rows[i], true
		}
	}
	return nil, false
}

// SumCells adds the integer cells, ignoring blanks and non-numeric text.
// An all-blank row sums to "".
func SumCells(cells ...string) string {
	total, seen := 0, false
	for _, c := range cells {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			continue
		}
		total += n
		seen = true
	}
	if !seen {
		return ""
	}
	return strconv.Itoa(total)
}
