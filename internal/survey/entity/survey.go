package entity

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultCategoryCount 체크리스트 부담작업 항목 수 (1호~12호)
const DefaultCategoryCount = 12

// CauseAnalysisRowCount 원인분석표 고정 행 수
const CauseAnalysisRowCount = 7

// Survey 하나의 편집 세션이 소유하는 조사 데이터 전체
type Survey struct {
	CategoryCount    int                     `json:"category_count"`
	Site             SiteProfile             `json:"site"`
	Tasks            []Task                  `json:"tasks"`
	Checklist        []ChecklistRow          `json:"checklist"`
	WorkConditions   []WorkConditionTable    `json:"work_conditions"`
	CauseAnalyses    []CauseAnalysisTable    `json:"cause_analyses"`
	InvestigationSeq int                     `json:"investigation_seq"`
	Investigations   []InvestigationForm     `json:"investigations"`
	DetailedSeq      int                     `json:"detailed_seq"`
	Detailed         []DetailedInvestigation `json:"detailed_investigations"`
	Symptoms         SymptomSurvey           `json:"symptoms"`
	Improvements     []ImprovementRow        `json:"improvements"`
}

// NewSurvey 빈 조사 데이터 생성
func NewSurvey(categoryCount int) *Survey {
	if categoryCount <= 0 {
		categoryCount = DefaultCategoryCount
	}
	return &Survey{CategoryCount: categoryCount}
}

// NewID 행 식별자 생성
func NewID() string {
	return uuid.New().String()
}

// Task 작업 (체크리스트의 작업명)
type Task struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindTask 작업 ID로 조회
func (s *Survey) FindTask(id string) (*Task, bool) {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return &s.Tasks[i], true
		}
	}
	return nil, false
}

// TaskName 작업 ID의 표시 이름, 없으면 빈 문자열
func (s *Survey) TaskName(id string) string {
	if t, ok := s.FindTask(id); ok {
		return t.Name
	}
	return ""
}

// EnsureTask returns the id of the task with the given name, registering a
// new task when none exists. Blank names map to no task.
func (s *Survey) EnsureTask(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	for _, t := range s.Tasks {
		if t.Name == name {
			return t.ID
		}
	}
	t := Task{ID: NewID(), Name: name}
	s.Tasks = append(s.Tasks, t)
	return t.ID
}

// ChecklistRowsForTask 작업에 속한 체크리스트 행 (체크리스트 순서 유지)
func (s *Survey) ChecklistRowsForTask(taskID string) []ChecklistRow {
	var rows []ChecklistRow
	for _, r := range s.Checklist {
		if r.TaskID == taskID {
			rows = append(rows, r)
		}
	}
	return rows
}

// WorkConditionTableFor 작업의 작업조건 조사표
func (s *Survey) WorkConditionTableFor(taskID string) (*WorkConditionTable, bool) {
	for i := range s.WorkConditions {
		if s.WorkConditions[i].TaskID == taskID {
			return &s.WorkConditions[i], true
		}
	}
	return nil, false
}

// CauseAnalysisTableFor 작업의 원인분석표
func (s *Survey) CauseAnalysisTableFor(taskID string) (*CauseAnalysisTable, bool) {
	for i := range s.CauseAnalyses {
		if s.CauseAnalyses[i].TaskID == taskID {
			return &s.CauseAnalyses[i], true
		}
	}
	return nil, false
}

// FindInvestigation 유해요인조사표 조회
func (s *Survey) FindInvestigation(id string) (*InvestigationForm, bool) {
	for i := range s.Investigations {
		if s.Investigations[i].ID == id {
			return &s.Investigations[i], true
		}
	}
	return nil, false
}

// FindDetailed 정밀조사 조회
func (s *Survey) FindDetailed(id string) (*DetailedInvestigation, bool) {
	for i := range s.Detailed {
		if s.Detailed[i].ID == id {
			return &s.Detailed[i], true
		}
	}
	return nil, false
}

// FindPainTask 통증호소 작업 조회
func (s *Survey) FindPainTask(id string) (*PainTask, bool) {
	for i := range s.Symptoms.Pain {
		if s.Symptoms.Pain[i].ID == id {
			return &s.Symptoms.Pain[i], true
		}
	}
	return nil, false
}

// Clone 깊은 복사
func (s *Survey) Clone() *Survey {
	c := *s
	c.Tasks = append([]Task(nil), s.Tasks...)

	c.Checklist = make([]ChecklistRow, len(s.Checklist))
	for i, r := range s.Checklist {
		r.Flags = append([]Flag(nil), r.Flags...)
		c.Checklist[i] = r
	}

	c.WorkConditions = make([]WorkConditionTable, len(s.WorkConditions))
	for i, t := range s.WorkConditions {
		t.Rows = append([]WorkConditionRow(nil), t.Rows...)
		c.WorkConditions[i] = t
	}

	c.CauseAnalyses = make([]CauseAnalysisTable, len(s.CauseAnalyses))
	for i, t := range s.CauseAnalyses {
		t.Rows = append([]CauseAnalysisRow(nil), t.Rows...)
		c.CauseAnalyses[i] = t
	}

	c.Investigations = make([]InvestigationForm, len(s.Investigations))
	for i, f := range s.Investigations {
		f.Changes = append([]SituationChange(nil), f.Changes...)
		c.Investigations[i] = f
	}

	c.Detailed = make([]DetailedInvestigation, len(s.Detailed))
	for i, d := range s.Detailed {
		d.Images = append([]ImageRef(nil), d.Images...)
		d.Results = append([]AnalysisResult(nil), d.Results...)
		c.Detailed[i] = d
	}

	c.Symptoms.Demographics = append([]DemographicsRow(nil), s.Symptoms.Demographics...)
	c.Symptoms.Tenure = append([]TenureRow(nil), s.Symptoms.Tenure...)
	c.Symptoms.BurdenLevels = append([]BurdenLevelRow(nil), s.Symptoms.BurdenLevels...)
	c.Symptoms.Pain = make([]PainTask, len(s.Symptoms.Pain))
	for i, p := range s.Symptoms.Pain {
		p.Rows = append([]PainRow(nil), p.Rows...)
		c.Symptoms.Pain[i] = p
	}

	c.Improvements = append([]ImprovementRow(nil), s.Improvements...)
	return &c
}
